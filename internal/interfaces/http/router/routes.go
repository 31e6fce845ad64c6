package router

import "github.com/gin-gonic/gin"

func (r *Router) registerRoutes(engine *gin.Engine) {
	engine.GET("/", r.corpus.Info)

	engine.POST("/answer", r.answer.Answer)
	engine.POST("/search", r.answer.Search)

	engine.GET("/plays", r.corpus.Plays)
	engine.GET("/characters", r.corpus.Characters)

	engine.GET("/health", r.health.Health)
	engine.GET("/live", r.health.Live)
	engine.GET("/ready", r.health.Ready)
}
