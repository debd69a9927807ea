// @title 标注任务市场 API
// @version 1.0
// @description 众包数据标注平台的后端服务器：任务发布、轮转分发、作答进度与验收结算。
// @termsOfService http://swagger.io/terms/

// @contact.name API支持
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"labelmarket_backend/internal/app"
	"labelmarket_backend/internal/config"
	"labelmarket_backend/pkg/logger"
	"log"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	application.Run()
}
