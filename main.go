package main

import (
	"fmt"

	"WorldDirector-server/config"
	"WorldDirector-server/models"
	"WorldDirector-server/routers"
	"WorldDirector-server/routers/api"
	"WorldDirector-server/service"
)

func main() {
	config.InitConfig()
	config.AppConfig.EnsureDirectories()
	fmt.Println("Server starting on port", config.AppConfig.Server.Port)

	models.InitDB()
	fmt.Println("Database initialized")

	service.InitQueue()
	fmt.Println("Queue initialized")

	service.InitMinIO()
	fmt.Println("MinIO initialized")

	cfg := config.AppConfig
	pipeline := &service.Pipeline{
		Generator: service.NewVideoGenerator(
			cfg.Worker.Addr,
			cfg.Pipeline.VideoDuration,
			cfg.Pipeline.VideoResolution,
			cfg.Pipeline.VideoFPS,
		),
		Scorer:             service.NewVideoScorer(),
		Agent:              service.NewAgentModule(cfg.Pipeline.SimulationDuration),
		Reviser:            service.NewPromptReviser(cfg.Pipeline.MinVisualQuality, cfg.Pipeline.MinMotionSmoothness),
		Cache:              service.NewGenerationCache(cfg.GenerationsDir()),
		Reconstructor:      service.NewReconstructor(cfg.Reconstruction.URL, cfg.Reconstruction.Timeout),
		Progress:           service.NewProgressStore(),
		GenerationsDir:     cfg.GenerationsDir(),
		ReconstructionsDir: cfg.ReconstructionsDir(),
		NumTakes:           cfg.Pipeline.NumTakes,
		MockSizeThreshold:  cfg.Pipeline.MockSizeThreshold,
		Upload:             service.UploadArtifact,
	}
	api.Init(pipeline)

	processor := service.NewProcessor(models.GormDB, pipeline)
	processor.StartProcessor(5)

	r := routers.InitRouter()
	r.Run(config.AppConfig.Server.Port)
}
