package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/onprem-sms/engine/engine"
)

type mqttSubmission struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// startMQTT connects to cfg.MQTTBroker and subscribes to cfg.MQTTTopic,
// decoding each message as a submission and forwarding it to eng. It
// returns nil if no broker is configured, disabling MQTT ingestion.
func startMQTT(logger *slog.Logger, cfg *Config, eng *engine.Engine) (mqtt.Client, error) {
	if cfg.MQTTBroker == "" {
		return nil, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID("smsengine").
		SetAutoReconnect(true).
		SetConnectRetry(true)

	opts.SetDefaultPublishHandler(func(client mqtt.Client, msg mqtt.Message) {
		var sub mqttSubmission
		if err := json.Unmarshal(msg.Payload(), &sub); err != nil {
			logger.Error("discarding malformed MQTT submission", "error", err)
			return
		}
		if sub.To == "" || sub.Message == "" {
			logger.Error("discarding MQTT submission missing 'to' or 'message'")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		outcome, err := eng.Submit(ctx, sub.To, sub.Message)
		if err != nil {
			logger.Error("failed to submit SMS from MQTT", "error", err, "to", sub.To)
			return
		}
		logger.Info("SMS submitted via MQTT", "to", sub.To, "outcome", outcome)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	if token := client.Subscribe(cfg.MQTTTopic, 1, nil); token.Wait() && token.Error() != nil {
		client.Disconnect(250)
		return nil, token.Error()
	}

	logger.Info("MQTT ingestion started", "broker", cfg.MQTTBroker, "topic", cfg.MQTTTopic)
	return client, nil
}
