package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/artxchange/artx-api/docs"
	v1 "github.com/artxchange/artx-api/internal/api/handler/v1"
	"github.com/artxchange/artx-api/internal/api/middleware"
	"github.com/artxchange/artx-api/internal/config"
	"github.com/artxchange/artx-api/internal/service"
)

type Services struct {
	Engine   *service.Engine
	Auth     *service.AuthService
	Accounts *service.AccountService
	Feed     *v1.FeedHandler
}

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, svc Services) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	if svc.Feed == nil {
		svc.Feed = v1.NewFeedHandler()
	}

	s.MountHandlers(
		v1.NewAuthHandler(conf.API, svc.Auth),
		v1.NewAccountHandler(svc.Accounts, svc.Engine),
		v1.NewArtworkHandler(svc.Engine),
		v1.NewEventHandler(svc.Engine),
		v1.NewModerationHandler(svc.Engine),
		svc.Feed,
	)

	return s
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
	if rl := s.Config.RateLimit; rl != nil {
		s.Router.Use(middleware.NewRateLimiter(rl.Window, rl.Limit, rl.MaxClients).Handler())
	}
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	accountHandler *v1.AccountHandler,
	artworkHandler *v1.ArtworkHandler,
	eventHandler *v1.EventHandler,
	moderationHandler *v1.ModerationHandler,
	feedHandler *v1.FeedHandler,
) {
	const basePath = "/api/v1"

	verifyJWT := middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT()

	public := s.Router.Group(basePath)
	{
		public.POST("/auth/signup", authHandler.HandleSignup)
		public.POST("/auth/login", authHandler.HandleLogin)
		public.GET("/artworks/:artworkID/feed", feedHandler.HandleFeed)
	}

	accounts := s.Router.Group(basePath+"/accounts/me", verifyJWT)
	{
		accounts.GET("", accountHandler.HandleGetMe)
		accounts.GET("/eligibility", accountHandler.HandleGetEligibility)
		accounts.GET("/votes", accountHandler.HandleGetVotes)
		accounts.GET("/enforcements", accountHandler.HandleGetEnforcements)
	}

	members := s.Router.Group(basePath, verifyJWT)
	{
		members.POST("/artworks", artworkHandler.HandleSubmitArtwork)
		members.GET("/artworks/:artworkID/vote", artworkHandler.HandleCanVote)
		members.POST("/artworks/:artworkID/vote", artworkHandler.HandleVote)
		members.POST("/artists/:artistID/donations", artworkHandler.HandleDonate)

		members.POST("/events", eventHandler.HandleCreateEvent)
		members.POST("/events/:eventID/registrations", eventHandler.HandleRegister)

		members.GET("/enforcements/:enforcementID/appeal", moderationHandler.HandleCanAppeal)
		members.POST("/enforcements/:enforcementID/appeals", moderationHandler.HandleSubmitAppeal)
	}

	moderators := s.Router.Group(basePath+"/moderation", verifyJWT, middleware.RequireModerator())
	{
		moderators.POST("/accounts/:accountID/enforcements", moderationHandler.HandleRecordEnforcement)
		moderators.POST("/appeals/:appealID/resolution", moderationHandler.HandleResolveAppeal)
	}

	s.Router.GET("/", v1.HandleHealthcheck)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "ArtXchange API"
	docs.SwaggerInfo.Description = "Eligibility and rate limits for the ArtXchange marketplace."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
