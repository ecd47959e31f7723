package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/greenbasket/plantfuture-backend/internal/config"
	"github.com/greenbasket/plantfuture-backend/internal/handler"
	appmw "github.com/greenbasket/plantfuture-backend/internal/middleware"
	"github.com/greenbasket/plantfuture-backend/internal/repository"
	"github.com/greenbasket/plantfuture-backend/internal/service"
	"gorm.io/gorm"
)

type Server struct {
	e *echo.Echo
}

func New(db *gorm.DB, cfg *config.Config, sha, buildTime string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false, nil
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return false, nil
			}
			if strings.HasSuffix(u.Hostname(), "vercel.app") {
				return true, nil
			}
			return false, nil
		},
	}))

	repos := repository.NewRepos(db)
	txm := repository.NewTxManager(db)
	growth := service.GrowthFromConfig(cfg)

	userSvc := service.NewUserService(repos, txm, growth)
	ledgerSvc := service.NewLedgerService(repos, txm, growth)
	treeSvc := service.NewTreeService(repos, txm, growth)
	deviceSvc := service.NewDeviceService(repos, txm)
	rewardSvc := service.NewRewardService(repos, txm)
	catalogSvc := service.NewCatalogService(repos)

	profileHandler := handler.NewProfileHandler(userSvc, ledgerSvc)
	treeHandler := handler.NewTreeHandler(treeSvc, growth)
	deviceHandler := handler.NewDeviceHandler(deviceSvc)
	rewardHandler := handler.NewRewardHandler(rewardSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    sha,
			"build_time": buildTime,
		})
	})

	api := e.Group("/api")
	api.GET("/tree-types", catalogHandler.List)
	api.GET("/rewards", rewardHandler.List)

	authMw, err := appmw.NewAuthMiddleware(context.Background())
	if err != nil {
		e.Logger.Fatalf("failed to init firebase auth: %v", err)
	}

	authed := api.Group("", authMw.RequireAuth)
	authed.POST("/me/profile", profileHandler.Register)
	authed.GET("/me", profileHandler.Me)
	authed.POST("/me/wallet/topup", profileHandler.TopUp)
	authed.POST("/me/wallet/convert", profileHandler.ConvertToPoints)
	authed.GET("/me/transactions", profileHandler.Transactions)
	authed.POST("/users/:uid/points", profileHandler.GrantPoints)

	authed.POST("/trees", treeHandler.Plant)
	authed.GET("/me/trees", treeHandler.ListMine)
	authed.GET("/farm/trees", treeHandler.ListFarm)
	authed.GET("/trees/:id", treeHandler.Get)
	authed.POST("/trees/:id/water", treeHandler.Water)
	authed.POST("/trees/:id/fertilize", treeHandler.Fertilize)
	authed.POST("/trees/:id/advance", treeHandler.Advance)
	authed.POST("/trees/:id/claim", treeHandler.Claim)
	authed.POST("/trees/:id/kill", treeHandler.Kill)
	authed.POST("/trees/:id/move", treeHandler.Move)
	authed.DELETE("/trees/:id", treeHandler.Delete)

	authed.POST("/devices", deviceHandler.Register)
	authed.GET("/me/devices", deviceHandler.ListMine)
	authed.POST("/devices/:id/fault", deviceHandler.MarkFaulty)
	authed.GET("/devices/:id/failures", deviceHandler.Failures)

	authed.POST("/rewards", rewardHandler.Add)
	authed.POST("/rewards/:id/redeem", rewardHandler.Redeem)

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}
