package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/teleshop/core/bootstrap"
	coreconfig "github.com/m3rciful/teleshop/core/config"
	coredatabase "github.com/m3rciful/teleshop/core/database"
	"github.com/m3rciful/teleshop/core/logger"
	coretelegram "github.com/m3rciful/teleshop/core/telegram"
	tghelpers "github.com/m3rciful/teleshop/core/telegram/helpers"
	tgsender "github.com/m3rciful/teleshop/core/telegram/sender"
	botapp "github.com/m3rciful/teleshop/internal/bot"
	"github.com/m3rciful/teleshop/internal/media"
	"github.com/m3rciful/teleshop/internal/shop"
	"github.com/m3rciful/teleshop/internal/storage"
	"github.com/m3rciful/teleshop/internal/upload"
	"github.com/m3rciful/teleshop/internal/webhook"
	"github.com/m3rciful/teleshop/internal/wizard"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("teleshop: %v", err)
	}
}

func run() error {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := coreconfig.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	boot, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg,
		Database: coredatabase.Config(cfg.Database),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()
	defer boot.DB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blobs, err := storage.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if err := blobs.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: coretelegram.BuildLongPoller(cfg.Telegram.LongPollTimeoutSeconds),
		Client: coretelegram.BuildHTTPClient(),
	})
	if err != nil {
		return fmt.Errorf("bot init: %w", err)
	}

	dispatcher := tgsender.NewDispatcher(tgsender.Options{})
	tghelpers.SetDispatcher(dispatcher)
	defer func() {
		dispatcher.Close()
		tghelpers.SetDispatcher(nil)
	}()

	products := shop.NewProductRepo(boot.DB)
	users := shop.NewUserRepo(boot.DB)
	orders := shop.NewOrderRepo(boot.DB)
	catalog := shop.NewCatalog(products, blobs)
	confirmer := shop.NewConfirmer(orders, products)

	batcher := media.New(cfg.Shop.MediaQuiet())
	defer batcher.Close()

	engine := wizard.NewEngine(
		cfg.Telegram.AdminID,
		wizard.NewPostgresStore(boot.DB),
		catalog,
		upload.New(botapp.NewFileSource(b), blobs),
		batcher,
		botapp.AdminNotifier(b, cfg.Telegram.AdminID),
	)

	app := botapp.New(b, botapp.Deps{
		Config:    cfg,
		Engine:    engine,
		Products:  products,
		Users:     users,
		Orders:    orders,
		Catalog:   catalog,
		Confirmer: confirmer,
	})
	app.Register()

	runMode := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	webhookMode := runMode == coreconfig.RunModeWebhook

	var processor webhook.UpdateProcessor
	if webhookMode {
		if err := coretelegram.RegisterWebhook(cfg.Telegram.Token, cfg.Webhook.URL); err != nil {
			return fmt.Errorf("register webhook: %w", err)
		}
		processor = b
	} else if err := coretelegram.DeleteWebhook(cfg.Telegram.Token, false); err != nil {
		logger.Warn(ctx, "tg", "delete_webhook.failed", slog.String("err", err.Error()))
	}

	addr := fmt.Sprintf("%s:%d", cfg.Webhook.Listen, cfg.Webhook.Port)
	srv := webhook.New(addr, processor, app)

	logger.Info(ctx, "tg", "mode",
		slog.String("mode", runMode),
		slog.String("listen", addr),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if !webhookMode {
		g.Go(func() error {
			done := make(chan struct{})
			go func() {
				b.Start()
				close(done)
			}()
			select {
			case <-gctx.Done():
				b.Stop()
				<-done
			case <-done:
			}
			return nil
		})
	}
	return g.Wait()
}
