package api

import (
	"github.com/gin-gonic/gin"

	"github.com/printdesk/printdesk/internal/api/handlers"
	"github.com/printdesk/printdesk/internal/api/middleware"
	"github.com/printdesk/printdesk/internal/config"
	"github.com/printdesk/printdesk/internal/core"
	"github.com/printdesk/printdesk/internal/printer"
	"github.com/printdesk/printdesk/internal/ws"
)

type Dependencies struct {
	Config   *config.Config
	Engine   *core.Engine
	Hub      *ws.Hub
	Printers *printer.Registry
}

func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.CORS(deps.Config.CORS.Origin))
	r.MaxMultipartMemory = deps.Config.Upload.MaxSizeMB << 20

	uploadHandler := handlers.NewUploadHandler(deps.Engine, deps.Config)
	merchantHandler := handlers.NewMerchantHandler(deps.Engine, deps.Config.Server.PublicURL)
	queueHandler := handlers.NewQueueHandler(deps.Engine)
	fileHandler := handlers.NewFileHandler(deps.Config.Upload.Dir)
	printerHandler := handlers.NewPrinterHandler(deps.Printers)
	historyHandler := handlers.NewHistoryHandler()

	r.POST("/upload", uploadHandler.Upload)

	r.POST("/saveMerchant", merchantHandler.SaveMerchant)
	r.GET("/merchant", merchantHandler.GetMerchant)
	r.GET("/generateQR", merchantHandler.GenerateQR)

	r.POST("/print", queueHandler.TriggerPrint)
	r.GET("/get-request", queueHandler.GetRequest)
	r.GET("/queue", queueHandler.GetQueue)
	r.GET("/stats", queueHandler.GetStats)

	r.GET("/get-file", fileHandler.GetFile)
	r.Static("/uploads", deps.Config.Upload.Dir)

	r.GET("/get-printer", printerHandler.GetPrinters)
	r.POST("/update-printer", printerHandler.UpdatePrinters)

	r.GET("/history", historyHandler.ListHistory)

	r.GET("/ws", func(c *gin.Context) {
		deps.Hub.HandleConnection(c.Writer, c.Request)
	})

	return r
}
