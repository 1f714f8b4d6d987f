package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/solarflex/core/model"
	"github.com/kilianp07/solarflex/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
	Retain      bool   `json:"retain"`
	UseTLS      bool   `json:"use_tls"`
	CABundle    string `json:"ca_bundle"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "solarflex-planner"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "solarflex"
	}
}

// Announcer publishes computed schedules for the dashboard and device
// controllers to consume.
type Announcer interface {
	AnnounceSchedule(planID string, sched model.Schedule) error
	Close()
}

// pahoClient is the narrow slice of the Paho API the announcer uses.
// It exists so tests can substitute a fake client.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// PahoAnnouncer implements Announcer using Eclipse Paho.
type PahoAnnouncer struct {
	cli    pahoClient
	prefix string
	qos    byte
	retain bool
	log    logger.Logger
}

// NewPahoAnnouncer connects to the MQTT broker described by the config.
func NewPahoAnnouncer(cfg Config) (*PahoAnnouncer, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	logg := logger.New("mqtt-announcer")
	opts.OnConnect = func(paho.Client) {
		logg.Infof("MQTT connected")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		logg.Errorf("connection lost: %v", err)
	}
	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &PahoAnnouncer{
		cli:    cli,
		prefix: cfg.TopicPrefix,
		qos:    cfg.QoS,
		retain: cfg.Retain,
		log:    logg,
	}, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := loadTLSConfig(cfg.CABundle)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

func loadTLSConfig(caBundle string) (*tls.Config, error) {
	if caBundle == "" {
		return &tls.Config{MinVersion: tls.VersionTLS12}, nil
	}
	pem, err := os.ReadFile(caBundle)
	if err != nil {
		return nil, fmt.Errorf("read ca bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", caBundle)
	}
	return &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// runPayload is the per-device message shape.
type runPayload struct {
	PlanID   string    `json:"plan_id"`
	DeviceID string    `json:"device_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	PowerKW  float64   `json:"power_kw"`
	EnergyWh float64   `json:"energy_wh"`
}

// AnnounceSchedule publishes the full schedule on <prefix>/plan and one
// retained message per placed device on <prefix>/schedule/<device_id>.
func (a *PahoAnnouncer) AnnounceSchedule(planID string, sched model.Schedule) error {
	summary, err := json.Marshal(struct {
		PlanID   string         `json:"plan_id"`
		Schedule model.Schedule `json:"schedule"`
	}{PlanID: planID, Schedule: sched})
	if err != nil {
		return err
	}
	if err := a.publish(a.prefix+"/plan", summary); err != nil {
		return err
	}
	for _, run := range sched.Runs {
		payload, err := json.Marshal(runPayload{
			PlanID:   planID,
			DeviceID: run.DeviceID,
			Start:    run.Start,
			End:      run.End,
			PowerKW:  run.PowerKW,
			EnergyWh: run.EnergyWh,
		})
		if err != nil {
			return err
		}
		if err := a.publish(fmt.Sprintf("%s/schedule/%s", a.prefix, run.DeviceID), payload); err != nil {
			return err
		}
	}
	a.log.Infof("announced plan %s: %d runs", planID, len(sched.Runs))
	return nil
}

func (a *PahoAnnouncer) publish(topic string, payload []byte) error {
	token := a.cli.Publish(topic, a.qos, a.retain, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish %s: %w", topic, token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (a *PahoAnnouncer) Close() {
	if a.cli.IsConnected() {
		a.cli.Disconnect(250)
	}
}
