package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/service/config"
	"github.com/khaledhikmat/ps-go/service/lgr"
)

type mqttService struct {
	Client  mqtt.Client
	Topic   string
	Timeout time.Duration
}

func NewMQTT(cfgSvc config.IService) (IService, error) {
	timeout := time.Duration(cfgSvc.GetNotifierTimeout()) * time.Second

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfgSvc.GetSlotsMQTTURL())
	opts.SetClientID("parking-vision-" + time.Now().Format("20060102150405"))
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(timeout)
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		lgr.Logger.Warn("mqtt connection lost", lgr.Err(err))
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfgSvc.GetSlotsMQTTURL())
	}
	if token.Error() != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", token.Error())
	}

	lgr.Logger.Info("mqtt connected",
		slog.String("broker", cfgSvc.GetSlotsMQTTURL()),
		slog.String("topic", cfgSvc.GetSlotsMQTTTopic()),
	)

	return &mqttService{
		Client:  client,
		Topic:   cfgSvc.GetSlotsMQTTTopic(),
		Timeout: timeout,
	}, nil
}

func (svc *mqttService) Name() string {
	return "mqtt"
}

func (svc *mqttService) Post(_ context.Context, results []model.SlotResult) error {
	data, err := json.Marshal(results)
	if err != nil {
		return err
	}

	token := svc.Client.Publish(svc.Topic, 0, false, data)
	if !token.WaitTimeout(svc.Timeout) {
		return fmt.Errorf("mqtt publish to %s timed out", svc.Topic)
	}
	return token.Error()
}

func (svc *mqttService) Close() error {
	svc.Client.Disconnect(250)
	return nil
}
