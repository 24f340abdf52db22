package events

import (
	"context"

	"github.com/smallbiznis/paygate/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("events",
	fx.Provide(NewOutbox),
	fx.Invoke(registerRelay),
)

// registerRelay starts the relay with the app. The broker connection is opened
// in OnStart so one-shot commands that never start the app stay offline.
func registerRelay(lc fx.Lifecycle, cfg config.Config, outbox *Outbox, log *zap.Logger) {
	if !cfg.Outbox.RelayEnabled {
		return
	}
	log = log.Named("outbox.relay")

	var (
		publisher Publisher = LogPublisher{Log: log}
		broker    *NATSPublisher
	)
	if cfg.Outbox.NATSURL != "" {
		broker = NewNATSPublisher(cfg.Outbox.NATSURL, cfg.Outbox.NATSSubject)
		publisher = broker
	}
	relay := NewRelay(outbox, publisher, log, cfg.Outbox.RelayInterval, cfg.Outbox.BatchSize)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if broker != nil {
				if err := broker.Connect(); err != nil {
					return err
				}
				log.Info("publishing payment events to nats", zap.String("subject_prefix", broker.prefix))
			}
			relay.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			err := relay.Stop(ctx)
			if broker != nil {
				if cerr := broker.Close(); err == nil {
					err = cerr
				}
			}
			return err
		},
	})
}
