package scheduler

// Package scheduler implements day-ahead placement of deferrable loads.
// Given a forecast of per-bucket solar output and a device catalog it
// assigns each device one contiguous run inside its operating window,
// maximising the forecast energy the run overlaps.
