package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path"
	"regexp"
	"ridepool/src/boot"
	"ridepool/src/config"
	"ridepool/src/controllers"
	"ridepool/src/db"
	"ridepool/src/middlewares"
	"ridepool/src/repository"
	"ridepool/src/services"
	"ridepool/src/utils"
	"syscall"
	"time"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

var dateKeyValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := time.Parse(config.DATE_FORMAT, date)
	return err == nil
}

var commuteTimeValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := services.ParseCommuteTime(t)
	return err == nil
}

var rideDateTimeValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	dt, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := services.ParseDeparture(dt, config.Location())
	return err == nil
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("datekey", dateKeyValidatorFunc)
		v.RegisterValidation("commutetime", commuteTimeValidatorFunc)
		v.RegisterValidation("ridedatetime", rideDateTimeValidatorFunc)
	}
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.RequestID, middlewares.SecureHeaders)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	router.GET("/ready", func(ctx *gin.Context) {
		if config.APIEnv() != "memory" {
			if err := db.Ping(ctx.Request.Context()); err != nil {
				log.Printf("[ready] database: %s\n", err.Error())
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "database unavailable"})
				return
			}
		}
		ctx.JSON(http.StatusOK, "ok")
	})
	return router
}

func maintenanceModeMiddleware(g *gin.Engine) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		if config.MaintenanceMode() {
			err := errors.New("server is under maintenance")
			log.Println(err.Error())
			ctx.Header("Retry-After", "300")
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "code": "maintenance"})
			return
		}
	})
	return g
}

func corsMiddleware(g *gin.Engine) *gin.Engine {
	if config.APIEnv() == "local" || config.APIEnv() == "memory" {
		g.Use(cors.Default())
		return g
	}
	appHost := os.Getenv("APP_HOST")
	cc := cors.DefaultConfig()
	cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PUT", "DELETE", "HEAD")
	cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization", middlewares.IDEMPOTENCY_HEADER, middlewares.REQUEST_ID_HEADER)
	cc.ExposeHeaders = append(cc.ExposeHeaders, middlewares.REQUEST_ID_HEADER, "Retry-After")
	cc.AllowOriginFunc = func(origin string) bool {
		if appHost == "" {
			return false
		}
		match, _ := regexp.MatchString(appHost, origin)
		return match
	}
	cc.AllowCredentials = true
	cc.AllowAllOrigins = false
	g.Use(cors.New(cc))
	return g
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(config.API_PREFIX)
	return apiv1
}

func publicRoutes(g *gin.Engine, store repository.Store) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	if utils.IsProd() {
		return apiv1
	}
	apiv1.POST("/auth/register", func(ctx *gin.Context) {
		token, status, err := controllers.AuthRegister(ctx, store)
		if err != nil {
			log.Printf("[AuthRegister] error: %s\n", err.Error())
			ctx.JSON(status, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(status, gin.H{"token": token})
	})
	return apiv1
}

// newRouter mounts the API on top of engine. rdb may be nil.
func newRouter(engine *services.Engine, rdb *redis.Client) *gin.Engine {
	router := setupRouter()
	router = corsMiddleware(router)
	router = maintenanceModeMiddleware(router)

	publicRoutes(router, engine.Store)

	authorized := apiv1Group(router)
	authorized.Use(middlewares.AuthMiddleware(engine.Store))
	{
		authorized = rideHandlers(authorized, engine, rdb)
		authorized = bookingHandlers(authorized, engine)
		authorized = savedRideHandlers(authorized, engine, rdb)
		authorized = proposalHandlers(authorized, engine)
		authorized = earningsHandlers(authorized, engine)
		authorized = settingsHandlers(authorized, engine)
	}
	return router
}

func initLogger() {
	cwd, _ := os.Getwd()
	logsDir := path.Join(cwd, "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		log.Printf("Error creating %s: %s\n", logsDir, err.Error())
		return
	}
	serverLogs := path.Join(logsDir, "server.log")
	apiLogs := path.Join(logsDir, "api.log")
	gin.ForceConsoleColor()

	f, err := os.OpenFile(apiLogs, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err == nil {
		gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()
	registerValidators()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := boot.InitStore()
	engine, rdb := boot.InitEngine(ctx, store)
	boot.InitScheduler(engine)
	defer boot.StopScheduler()
	boot.InitBroker(ctx)

	srv := &http.Server{
		Addr:    ":" + config.Port(),
		Handler: newRouter(engine, rdb),
	}
	go func() {
		log.Printf("Listening on %s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err.Error())
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %s\n", err.Error())
	}
}
