package pvmodel

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/solarflex/core/model"
)

// Config holds the production model coefficients.
type Config struct {
	// GainWhPerIrradiance converts smoothed tilted irradiance (W/m²) into
	// energy produced per bucket (Wh).
	GainWhPerIrradiance float64 `json:"gain_wh_per_irradiance"`
	OffsetWh            float64 `json:"offset_wh"`
	// TempCoefficient derates output per degree of air temperature above
	// ReferenceTempC. Typical silicon panels lose around 0.4%/°C.
	TempCoefficient float64 `json:"temp_coefficient"`
	ReferenceTempC  float64 `json:"reference_temp_c"`
}

// SetDefaults applies coefficients fitted for the campus array.
func (c *Config) SetDefaults() {
	if c.GainWhPerIrradiance == 0 {
		c.GainWhPerIrradiance = 210
	}
	if c.ReferenceTempC == 0 {
		c.ReferenceTempC = 25
	}
}

// Validate checks the coefficients.
func (c Config) Validate() error {
	if c.GainWhPerIrradiance <= 0 {
		return fmt.Errorf("gain_wh_per_irradiance must be positive, got %.3f", c.GainWhPerIrradiance)
	}
	if c.TempCoefficient < 0 {
		return fmt.Errorf("temp_coefficient must not be negative, got %.4f", c.TempCoefficient)
	}
	return nil
}

// MeteoPoint is one hourly sample from the weather provider.
type MeteoPoint struct {
	Timestamp  time.Time
	Irradiance float64 // global tilted irradiance, W/m²
	AirTempC   float64
}

// Observation pairs measured meteorology with the energy the array actually
// produced, used to calibrate the model from site history.
type Observation struct {
	Irradiance float64
	AirTempC   float64
	EnergyWh   float64
}

// Model converts a meteorological forecast into a PV production series.
// It is built once at startup and never mutated, so it is safe for
// concurrent use.
type Model struct {
	cfg Config
}

// New validates the configuration and returns a Model.
func New(cfg Config) (*Model, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Model{cfg: cfg}, nil
}

// Calibrate fits gain and offset by ordinary least squares of produced
// energy against temperature-derated irradiance.
func Calibrate(cfg Config, obs []Observation) (Config, error) {
	cfg.SetDefaults()
	if len(obs) < 2 {
		return cfg, fmt.Errorf("calibration needs at least 2 observations, got %d", len(obs))
	}
	xs := make([]float64, len(obs))
	ys := make([]float64, len(obs))
	for i, o := range obs {
		xs[i] = o.Irradiance * derate(cfg, o.AirTempC)
		ys[i] = o.EnergyWh
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if beta <= 0 {
		return cfg, fmt.Errorf("calibration produced non-positive gain %.4f", beta)
	}
	cfg.OffsetWh = alpha
	cfg.GainWhPerIrradiance = beta
	return cfg, nil
}

// Predict resamples the hourly meteo forecast to the bucket resolution,
// smooths the irradiance and applies the production model. The returned
// series starts at the first meteo timestamp and every bucket is evaluated
// at its midpoint.
func (m *Model) Predict(points []MeteoPoint, step time.Duration) (model.Series, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least two meteo points, got %d", len(points))
	}
	if step <= 0 {
		return nil, fmt.Errorf("bucket duration must be positive")
	}

	times := make([]float64, len(points))
	irr := make([]float64, len(points))
	temp := make([]float64, len(points))
	for i, p := range points {
		times[i] = float64(p.Timestamp.Unix())
		irr[i] = p.Irradiance
		if irr[i] < 0 {
			irr[i] = 0
		}
		temp[i] = p.AirTempC
	}
	smooth(irr)

	var irrF, tempF interp.PiecewiseLinear
	if err := irrF.Fit(times, irr); err != nil {
		return nil, fmt.Errorf("fit irradiance: %w", err)
	}
	if err := tempF.Fit(times, temp); err != nil {
		return nil, fmt.Errorf("fit temperature: %w", err)
	}

	end := points[len(points)-1].Timestamp
	var out model.Series
	for ts := points[0].Timestamp; !ts.Add(step).After(end); ts = ts.Add(step) {
		x := float64(ts.Add(step / 2).Unix())
		e := m.cfg.OffsetWh + m.cfg.GainWhPerIrradiance*irrF.Predict(x)*derate(m.cfg, tempF.Predict(x))
		if e < 0 {
			e = 0
		}
		out = append(out, model.ForecastSample{Timestamp: ts, EnergyWh: e})
	}
	return out, nil
}

func derate(cfg Config, tempC float64) float64 {
	f := 1 - cfg.TempCoefficient*(tempC-cfg.ReferenceTempC)
	if f < 0 {
		return 0
	}
	return f
}

// smooth applies a 3-point centered rolling mean in place, matching the
// sanitisation the prediction pipeline applies to raw irradiance.
func smooth(v []float64) {
	if len(v) < 3 {
		return
	}
	prev := v[0]
	for i := 1; i < len(v)-1; i++ {
		cur := v[i]
		v[i] = (prev + cur + v[i+1]) / 3
		prev = cur
	}
}
