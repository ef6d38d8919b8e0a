package config

import (
    "log"
    "os"
    "path/filepath"

    "gopkg.in/yaml.v2"
)

type Config struct {
    Server struct {
        Port string `yaml:"port"`
    } `yaml:"server"`
    MySQL struct {
        DSN string `yaml:"dsn"`
    } `yaml:"mysql"`
    Redis struct {
        Addr     string `yaml:"addr"`
        Password string `yaml:"password"`
    } `yaml:"redis"`
    Worker struct {
        Addr string `yaml:"addr"`
    } `yaml:"worker"`
    MinIO struct {
        Endpoint  string `yaml:"endpoint"`
        AccessKey string `yaml:"access_key"`
        SecretKey string `yaml:"secret_key"`
        Bucket    string `yaml:"bucket"`
        UseSSL    bool   `yaml:"use_ssl"`
        Domain    string `yaml:"domain"`
    } `yaml:"minio"`
    Reconstruction struct {
        URL     string `yaml:"url"`
        Timeout int    `yaml:"timeout"` // 秒
    } `yaml:"reconstruction"`
    Pipeline struct {
        DataRoot               string  `yaml:"data_root"`
        NumTakes               int     `yaml:"num_takes"`
        VideoDuration          int     `yaml:"video_duration"` // 秒，Sora 只支持 4/8/12
        VideoResolution        string  `yaml:"video_resolution"`
        VideoFPS               int     `yaml:"video_fps"`
        SimulationDuration     float64 `yaml:"simulation_duration"`
        MinVisualQuality       float64 `yaml:"min_visual_quality"`
        MinMotionSmoothness    float64 `yaml:"min_motion_smoothness"`
        MockSizeThreshold      int64   `yaml:"mock_size_threshold"` // 小于该字节数视为 mock 产物
        CleanupDays            int     `yaml:"cleanup_days"`
    } `yaml:"pipeline"`
}

var AppConfig *Config

func InitConfig() {
    f, err := os.Open("config/config.yaml")
    if err != nil {
        log.Fatalf("配置文件读取失败: %v", err)
    }
    defer f.Close()
    decoder := yaml.NewDecoder(f)
    AppConfig = &Config{}
    if err := decoder.Decode(AppConfig); err != nil {
        log.Fatalf("配置文件解析失败: %v", err)
    }
    applyDefaults(AppConfig)
}

// applyDefaults 对未配置的字段填充默认值（与历史部署保持一致）
func applyDefaults(c *Config) {
    if c.Pipeline.DataRoot == "" {
        c.Pipeline.DataRoot = "data"
    }
    if c.Pipeline.NumTakes <= 0 {
        c.Pipeline.NumTakes = 3
    }
    if c.Pipeline.VideoDuration == 0 {
        c.Pipeline.VideoDuration = 8
    }
    if c.Pipeline.VideoResolution == "" {
        c.Pipeline.VideoResolution = "1280x720"
    }
    if c.Pipeline.VideoFPS == 0 {
        c.Pipeline.VideoFPS = 24
    }
    if c.Pipeline.SimulationDuration == 0 {
        c.Pipeline.SimulationDuration = 30
    }
    if c.Pipeline.MinVisualQuality == 0 {
        c.Pipeline.MinVisualQuality = 0.85
    }
    if c.Pipeline.MinMotionSmoothness == 0 {
        c.Pipeline.MinMotionSmoothness = 0.80
    }
    if c.Pipeline.MockSizeThreshold == 0 {
        c.Pipeline.MockSizeThreshold = 100000
    }
    if c.Pipeline.CleanupDays == 0 {
        c.Pipeline.CleanupDays = 7
    }
    if c.Reconstruction.Timeout == 0 {
        c.Reconstruction.Timeout = 300
    }
}

// GenerationsDir 生成视频的根目录
func (c *Config) GenerationsDir() string {
    return filepath.Join(c.Pipeline.DataRoot, "generations")
}

// ReconstructionsDir 3D 重建产物的根目录
func (c *Config) ReconstructionsDir() string {
    return filepath.Join(c.Pipeline.DataRoot, "reconstructions")
}

// EnsureDirectories 启动时创建数据目录
func (c *Config) EnsureDirectories() {
    for _, dir := range []string{c.Pipeline.DataRoot, c.GenerationsDir(), c.ReconstructionsDir(), filepath.Join(c.Pipeline.DataRoot, "uploads")} {
        if err := os.MkdirAll(dir, 0o755); err != nil {
            log.Fatalf("创建数据目录失败 %s: %v", dir, err)
        }
    }
}
