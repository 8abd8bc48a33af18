package router

import (
	"github.com/gin-gonic/gin"

	"github.com/24p11/predict-api/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	predictionHandler := handler.NewPredictionHandler(deps)

	r.GET("/health", predictionHandler.Health)

	predict := r.Group("/predict/:task")
	{
		// POST /predict/:task/?asynch=0|1 - Classify documents
		predict.POST("/", predictionHandler.Predict)

		// GET /predict/:task/ - List durable predictions
		predict.GET("/", predictionHandler.ListPredictions)

		// GET /predict/:task/:id/ - Get an asynchronous prediction
		predict.GET("/:id/", predictionHandler.GetPrediction)
	}

	return r
}
