package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dilshat/gift-courier/controller"
	"github.com/dilshat/gift-courier/dao"
	_ "github.com/dilshat/gift-courier/docs"
	"github.com/dilshat/gift-courier/events"
	"github.com/dilshat/gift-courier/friends"
	"github.com/dilshat/gift-courier/fulfillment"
	"github.com/dilshat/gift-courier/log"
	"github.com/dilshat/gift-courier/marketplace"
	"github.com/dilshat/gift-courier/model"
	"github.com/dilshat/gift-courier/profile"
	"github.com/dilshat/gift-courier/service"
	"github.com/dilshat/gift-courier/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
)

const (
	httpTimeout     = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the scheduler and the friend tracker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	}
}

func serve(ctx context.Context, opts *RootOptions) error {
	cfg := opts.Config

	//create db client
	dbClient, err := dao.GetClient(cfg.DbPath)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	bus := events.NewBus()
	defer bus.Shutdown()
	deliveryDao := dao.NewDeliveryDao(dbClient, dao.WithNotifier(bus))

	if cfg.ResetOnStart {
		n, err := deliveryDao.ResetAllNonDelivered()
		if err != nil {
			return err
		}
		zap.L().Info("Interrupted deliveries reset", zap.Int("count", n))
	}

	//external collaborators
	automation := session.NewRemote(cfg.AutomationURL, cfg.AutomationRPS, httpTimeout)
	market := marketplace.NewClient(cfg.MarketURL, cfg.MarketSellerID, cfg.MarketAPIKey, cfg.MarketRPS, httpTimeout)
	profiles := profile.NewResolver(httpTimeout)

	tracker := friends.NewTracker(automation, cfg.FriendsRefresh)
	worker := fulfillment.NewWorker(deliveryDao, market, profiles, automation, tracker, fulfillment.NewGate(), cfg.FulfillmentConfig())
	//workers outlive the signal context
	supervisor := fulfillment.NewSupervisor(context.Background(), func(code string, _ interface{}) {
		log.ErrIfErr("Error recording worker crash", worker.Fail(code, model.ErrUnclassified))
	})
	scheduler := fulfillment.NewScheduler(deliveryDao, worker, supervisor, cfg.PollInterval)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go tracker.Run(ctx)
	go scheduler.Run(ctx)

	courierService := service.NewService(deliveryDao, market, profiles, automation, bus, supervisor, cfg.DeliveryDelay)
	e := newServer(courierService)

	//start http server
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(":" + cfg.HTTPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.WarnIfErr("Error shutting down http server", e.Shutdown(shutdownCtx))
	if werr := supervisor.Wait(shutdownCtx); werr != nil {
		zap.L().Warn("Workers still running at shutdown", zap.Int("count", len(supervisor.InFlight())))
	}

	return err
}

func newServer(srv service.Service) *echo.Echo {
	e := echo.New()
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.HideBanner = true
	e.Use(middleware.BodyLimit("2K"))
	e.Use(middleware.Recover())

	controller.Bind(e, srv)

	return e
}
