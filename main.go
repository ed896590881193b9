package main

import (
	"log"

	"github.com/lentaproject/lenta/config"
	"github.com/lentaproject/lenta/models"
	"github.com/lentaproject/lenta/routes"
	"github.com/lentaproject/lenta/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer utils.Logger.Sync()

	config.InitDatabase(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
		&models.PageView{},
	)
	utils.InitRedis(cfg)

	r := routes.SetupRouter(cfg, config.DB())

	utils.Sugar.Infof("listening on :%s", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server exited: %v", err)
	}
}
