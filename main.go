package main

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"

	"influencer-feedback-server/routes"
	"influencer-feedback-server/services"
	"influencer-feedback-server/storage"
	"influencer-feedback-server/utils"
)

func main() {
	godotenv.Load()

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	storage.InitializeRedis()
	storage.InitializeDataset()
	services.InitializeClassifier()
	services.InitializeSentimentCache()

	app := iris.New()
	app.Validator = validator.New()

	// CORS for dashboards served from another origin
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	app.Get("/", routes.Dashboard)

	api := app.Party("/api")
	{
		api.Get("/health", routes.Health)
		api.Get("/profiles", routes.ListProfiles)
		api.Get("/profiles/summary", routes.GetProfileSummary)
		api.Get("/profiles/feedback", routes.GetProfileFeedback)
		api.Get("/ranking", routes.GetRanking)
	}

	app.Listen(":" + cfg.Port)
}
