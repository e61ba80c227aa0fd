package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Значения по умолчанию для последовательности "клавиатуры" на главной странице.
const (
	DefaultFrameCount = 82
	DefaultBasePath   = "public/images/Emil_Header_sequence/watermark_removed_2cf30d6a-2765-40f9-a2f2-e97f99fd4ada_"
	DefaultTickRate   = 30
	DefaultSmoothing  = 0.15
	DefaultMaxSpeed   = 2.0
	DefaultEpsilon    = 0.01
	DefaultMinStep    = 0.05
	DefaultBackground = "#000000"
	DefaultScaler     = "bilinear"
	DefaultDuration   = 12.0
	FrameIndexWidth   = 3
	FrameExt          = ".png"
)

// Player описывает последовательность кадров и параметры сглаживания.
type Player struct {
	FrameCount int     `yaml:"frame_count"`
	BasePath   string  `yaml:"base_path"`
	TickRate   int     `yaml:"tick_rate"`
	Smoothing  float64 `yaml:"smoothing"`
	MaxSpeed   float64 `yaml:"max_speed"`
	Epsilon    float64 `yaml:"epsilon"`
	MinStep    float64 `yaml:"min_step"`
	Background string  `yaml:"background"`
	Scaler     string  `yaml:"scaler"`
	Workers    int     `yaml:"workers"`
	DPI        int     `yaml:"dpi"`
}

// Theme управляет переключением темы после порогового кадра.
type Theme struct {
	Threshold int     `yaml:"threshold"`
	Auto      bool    `yaml:"auto"`
	Cutoff    float64 `yaml:"cutoff"`
	Light     string  `yaml:"light"`
	Dark      string  `yaml:"dark"`
	// Measurer выбирает метрику яркости для auto: luma (Rec.601) или lab (L* в CIELAB).
	Measurer string `yaml:"measurer"`
}

// MQTT задает брокер для уведомлений о смене кадра. Пустой URL отключает отправку.
type MQTT struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
}

type Config struct {
	Player Player `yaml:"player"`
	Theme  Theme  `yaml:"theme"`
	MQTT   MQTT   `yaml:"mqtt"`

	InputPath     string  `yaml:"input"`
	OutputVideo   string  `yaml:"output"`
	FramesDir     string  `yaml:"frames_dir"`
	ScenarioInput string  `yaml:"scenario"`
	TotalDuration float64 `yaml:"duration"`
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	DPR           float64 `yaml:"dpr"`
	FPS           int     `yaml:"fps"`
	LoadTimeout   float64 `yaml:"load_timeout"`
	QRLink        string  `yaml:"qr_link"`
	RegionScreens float64 `yaml:"region_screens"`
	VideoEncoder  string  `yaml:"-"`
	Quality       int     `yaml:"quality"`
	ShowStats     bool    `yaml:"stats"`
	BuildVersion  string  `yaml:"-"`
}

// Default возвращает конфигурацию с константами из исходного компонента.
func Default() *Config {
	return &Config{
		Player: Player{
			FrameCount: DefaultFrameCount,
			BasePath:   DefaultBasePath,
			TickRate:   DefaultTickRate,
			Smoothing:  DefaultSmoothing,
			MaxSpeed:   DefaultMaxSpeed,
			Epsilon:    DefaultEpsilon,
			MinStep:    DefaultMinStep,
			Background: DefaultBackground,
			Scaler:     DefaultScaler,
			Workers:    8,
			DPI:        150,
		},
		Theme: Theme{
			Threshold: 40,
			Cutoff:    0.5,
			Measurer:  "luma",
			Light:     "#f5f5f0",
			Dark:      "#0b0b0f",
		},
		MQTT: MQTT{
			Topic: "keyscroll/frame",
		},
		Width:         1280,
		Height:        720,
		DPR:           1,
		FPS:           DefaultTickRate,
		LoadTimeout:   30,
		RegionScreens: 2,
	}
}

// Load накладывает YAML-файл поверх cfg. Отсутствующие в файле поля не меняются.
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// FramePath строит путь кадра: BasePath + индекс с нулями до трех знаков + ".png".
func (p Player) FramePath(index int) string {
	return fmt.Sprintf("%s%0*d%s", p.BasePath, FrameIndexWidth, index, FrameExt)
}

func (p Player) Validate() error {
	var errs []error
	if p.FrameCount <= 0 {
		errs = append(errs, fmt.Errorf("frame_count must be positive, got %d", p.FrameCount))
	}
	if p.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("tick_rate must be positive, got %d", p.TickRate))
	}
	if p.Smoothing <= 0 || p.Smoothing > 1 {
		errs = append(errs, fmt.Errorf("smoothing must be in (0,1], got %v", p.Smoothing))
	}
	if p.MaxSpeed <= 0 {
		errs = append(errs, fmt.Errorf("max_speed must be positive, got %v", p.MaxSpeed))
	}
	if p.Epsilon <= 0 {
		errs = append(errs, fmt.Errorf("epsilon must be positive, got %v", p.Epsilon))
	}
	if p.MinStep < 0 || p.MinStep > p.MaxSpeed {
		errs = append(errs, fmt.Errorf("min_step must be in [0,max_speed], got %v", p.MinStep))
	}
	return errors.Join(errs...)
}

// ScriptDuration возвращает длительность сгенерированного сценария: TotalDuration
// или DefaultDuration, если она не задана.
func (c *Config) ScriptDuration() float64 {
	if c.TotalDuration > 0 {
		return c.TotalDuration
	}
	return DefaultDuration
}

func (c *Config) Validate() error {
	var errs []error
	if err := c.Player.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid size %dx%d", c.Width, c.Height))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", c.FPS))
	}
	if c.DPR <= 0 {
		errs = append(errs, fmt.Errorf("dpr must be positive, got %v", c.DPR))
	}
	return errors.Join(errs...)
}
