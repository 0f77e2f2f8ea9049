package common

import "github.com/spf13/viper"

// ===============================================================================
// NATS Related Config

// NATSReconnectConfig defines reconnect parameters
type NATSReconnectConfig struct {
	// MaxAttempts sets the max number of reconnect attempts (-1 is unlimited)
	MaxAttempts int `mapstructure:"max_attempts" json:"max_attempts" validate:"gte=-1"`
	// WaitInterval is the duration between reconnect attempts in seconds
	WaitInterval int `mapstructure:"wait_interval_sec" json:"wait_interval_sec" validate:"gte=1"`
}

// NATSConfig defines parameters for connecting to NATS server
type NATSConfig struct {
	// ServerURI is the NATS connection URI
	ServerURI string `mapstructure:"server_uri" json:"server_uri" validate:"required,uri"`
	// ConnectTimeout is the max duration for connecting to NATS server in seconds
	ConnectTimeout int `mapstructure:"connect_timeout_sec" json:"connect_timeout_sec" validate:"gte=1"`
	// Reconnect defines reconnect parameters
	Reconnect NATSReconnectConfig `mapstructure:"reconnect" json:"reconnect" validate:"required,dive"`
}

// ===============================================================================
// HTTP Related Config

// HTTPServerConfig defines the HTTP server parameters
type HTTPServerConfig struct {
	// ListenOn is the interface the HTTP server will listen on
	ListenOn string `mapstructure:"listen_on" json:"listen_on" validate:"required,ip"`
	// Port is the port the HTTP server will listen on
	Port uint16 `mapstructure:"listen_port" json:"listen_port" validate:"required,gt=0,lt=65536"`
	// ReadTimeout is the maximum duration for reading the entire
	// request, including the body in seconds. A zero or negative
	// value means there will be no timeout.
	ReadTimeout int `mapstructure:"read_timeout_sec" json:"read_timeout_sec" validate:"gte=0"`
	// WriteTimeout is the maximum duration before timing out
	// writes of the response in seconds. A zero or negative value
	// means there will be no timeout.
	//
	// Viewer WebSocket sessions are long lived, so the default
	// leaves this disabled.
	WriteTimeout int `mapstructure:"write_timeout_sec" json:"write_timeout_sec" validate:"gte=0"`
	// IdleTimeout is the maximum amount of time to wait for the
	// next request when keep-alives are enabled in seconds. If
	// IdleTimeout is zero, the value of ReadTimeout is used. If
	// both are zero, there is no timeout.
	IdleTimeout int `mapstructure:"idle_timeout_sec" json:"idle_timeout_sec" validate:"gte=0"`
}

// HTTPRequestLogging defines HTTP request logging parameters
type HTTPRequestLogging struct {
	// RequestIDHeader is the HTTP header containing the API request ID
	RequestIDHeader string `mapstructure:"request_id_header" json:"request_id_header"`
	// DoNotLogHeaders is the list of headers to not include in logging metadata
	DoNotLogHeaders []string `mapstructure:"do_not_log_headers" json:"do_not_log_headers"`
}

// HTTPConfig defines HTTP API / server parameters
type HTTPConfig struct {
	// Server defines HTTP server parameters
	Server HTTPServerConfig `mapstructure:"server_config" json:"server_config" validate:"required,dive"`
	// Logging defines operation logging parameters
	Logging HTTPRequestLogging `mapstructure:"logging_config" json:"logging_config" validate:"required,dive"`
}

// ===============================================================================
// Hub Server Related Config

// HubEndpointConfig defines hub API endpoint config
type HubEndpointConfig struct {
	// PathPrefix is the end-point path prefix for the hub APIs
	PathPrefix string `mapstructure:"path_prefix" json:"path_prefix" validate:"required"`
}

// WebsocketConfig defines viewer WebSocket session parameters
type WebsocketConfig struct {
	// SendQueueLen is the per-client outbound message queue depth. A client
	// whose queue is full misses the broadcast and is flagged for disconnect.
	SendQueueLen int `mapstructure:"send_queue_len" json:"send_queue_len" validate:"required,gte=1"`
	// WriteTimeout is the max duration for one message write to a viewer in seconds
	WriteTimeout int `mapstructure:"write_timeout_sec" json:"write_timeout_sec" validate:"required,gte=1"`
}

// HubServerConfig defines configuration for the hub API server
type HubServerConfig struct {
	// HTTPSetting is the HTTP API / server parameters for the hub API server
	HTTPSetting HTTPConfig `mapstructure:"api_server" json:"api_server" validate:"required,dive"`
	// Endpoints is the API endpoint config parameters for the hub API server
	Endpoints HubEndpointConfig `mapstructure:"endpoint_config" json:"endpoint_config" validate:"required,dive"`
	// Websocket is the viewer WebSocket session parameters
	Websocket WebsocketConfig `mapstructure:"websocket" json:"websocket" validate:"required,dive"`
}

// ===============================================================================
// CDC Feed Related Config

// FeedConfig defines parameters for the upstream CDC feed consumer
type FeedConfig struct {
	// Subject is the JetStream subject carrying the CDC records
	Subject string `mapstructure:"subject" json:"subject" validate:"required"`
	// ConsumerName is the durable consumer name used when subscribing
	ConsumerName string `mapstructure:"consumer_name" json:"consumer_name" validate:"required"`
	// DeliveryGroup is the optional delivery group to subscribe under
	DeliveryGroup string `mapstructure:"delivery_group" json:"delivery_group"`
	// TopicPollInterval is the interval between JetStream subject discovery
	// polls in seconds
	TopicPollInterval int `mapstructure:"topic_poll_interval_sec" json:"topic_poll_interval_sec" validate:"required,gte=1"`
}

// ===============================================================================
// Complete Config

// SystemConfig defines the complete system config for the hub server
type SystemConfig struct {
	// NATS are the NATS related config parameters
	NATS NATSConfig `mapstructure:"nats" json:"nats" validate:"required,dive"`
	// Hub are the hub API server configs
	Hub HubServerConfig `mapstructure:"hub" json:"hub" validate:"required,dive"`
	// Feed are the upstream CDC feed configs
	Feed FeedConfig `mapstructure:"feed" json:"feed" validate:"required,dive"`
}

// ===============================================================================

// InstallDefaultConfigValues installs default config parameters in viper
func InstallDefaultConfigValues() {
	// Default NATS settings
	viper.SetDefault("nats.server_uri", "nats://127.0.0.1:4222")
	viper.SetDefault("nats.connect_timeout_sec", 30)
	viper.SetDefault("nats.reconnect.max_attempts", -1)
	viper.SetDefault("nats.reconnect.wait_interval_sec", 15)

	// Default hub server settings
	viper.SetDefault("hub.endpoint_config.path_prefix", "/")
	viper.SetDefault("hub.api_server.server_config.listen_on", "0.0.0.0")
	viper.SetDefault("hub.api_server.server_config.listen_port", 3000)
	viper.SetDefault("hub.api_server.server_config.read_timeout_sec", 60)
	viper.SetDefault("hub.api_server.server_config.write_timeout_sec", 0)
	viper.SetDefault("hub.api_server.server_config.idle_timeout_sec", 600)
	viper.SetDefault(
		"hub.api_server.logging_config.request_id_header", "Hubcast-Request-ID",
	)
	viper.SetDefault(
		"hub.api_server.logging_config.do_not_log_headers", []string{
			"WWW-Authenticate", "Authorization", "Proxy-Authenticate", "Proxy-Authorization",
		},
	)
	viper.SetDefault("hub.websocket.send_queue_len", 64)
	viper.SetDefault("hub.websocket.write_timeout_sec", 5)

	// Default CDC feed settings
	viper.SetDefault("feed.subject", "postgres.public.super_heroes")
	viper.SetDefault("feed.consumer_name", "hubcast")
	viper.SetDefault("feed.delivery_group", "")
	viper.SetDefault("feed.topic_poll_interval_sec", 60)
}
