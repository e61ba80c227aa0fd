package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ivlev/keyscroll/internal/config"
	"github.com/ivlev/keyscroll/internal/director"
	"github.com/ivlev/keyscroll/internal/effects"
	"github.com/ivlev/keyscroll/internal/engine"
	"github.com/ivlev/keyscroll/internal/preview"
	"github.com/ivlev/keyscroll/internal/source"
	"github.com/ivlev/keyscroll/internal/system"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	defaults := config.Default()

	modePtr := flag.String("mode", "capture", "Режим: capture (видео/кадры), preview (окно), scenario (только сценарий)")
	configPtr := flag.String("config", "", "YAML-конфиг; флаги командной строки имеют приоритет")
	inputPtr := flag.String("input", "", "PDF, папка с изображениями или шаблон URL (по умолчанию: base_path из конфига)")
	outputPtr := flag.String("output", "", "Путь к видео (если пусто и не задан -frames, генерируется автоматически в output/)")
	framesPtr := flag.String("frames", "", "Папка для PNG-кадров захвата")
	scenarioPtr := flag.String("scenario", "", "Сценарий прокрутки YAML ('latest' - самый свежий из input/scenarios)")
	durationPtr := flag.Float64("duration", 0, "Длительность захвата в секундах (0 - из сценария или 12s)")
	widthPtr := flag.Int("width", defaults.Width, "Ширина холста в логических пикселях")
	heightPtr := flag.Int("height", defaults.Height, "Высота холста в логических пикселях")
	dprPtr := flag.Float64("dpr", defaults.DPR, "Device pixel ratio холста")
	fpsPtr := flag.Int("fps", defaults.FPS, "FPS захвата (плеер тикает с частотой tick_rate независимо от FPS)")
	workersPtr := flag.Int("workers", runtime.NumCPU(), "Потоки предзагрузки")
	dpiPtr := flag.Int("dpi", defaults.Player.DPI, "DPI для PDF")
	qualityPtr := flag.Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	themePtr := flag.Int("theme-threshold", defaults.Theme.Threshold, "Кадр переключения темы (-1 - никогда)")
	autoThemePtr := flag.Bool("auto-theme", false, "Определить кадр переключения темы по яркости")
	measurerPtr := flag.String("measurer", defaults.Theme.Measurer, "Метрика яркости для -auto-theme: luma или lab")
	qrPtr := flag.String("qr", "", "Ссылка для QR-бейджа в углу кадра")
	mqttPtr := flag.String("mqtt", "", "MQTT брокер для уведомлений о кадрах, например tcp://localhost:1883")
	statsPtr := flag.Bool("stats", false, "Показать отчет о производительности и дописать benchmark.log")
	presetPtr := flag.String("preset", "", "Пресет формата: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")

	flag.Parse()

	cfg := defaults
	cfg.BuildVersion = version
	if *configPtr != "" {
		if err := config.Load(*configPtr, cfg); err != nil {
			log.Fatalf("[-] Ошибка конфига: %v", err)
		}
		fmt.Printf("[*] Конфиг: %s\n", *configPtr)
	}

	switch *presetPtr {
	case "16:9":
		cfg.Width, cfg.Height = 1280, 720
	case "9:16":
		cfg.Width, cfg.Height = 720, 1280
	case "4:5":
		cfg.Width, cfg.Height = 1080, 1350
	}

	// Флаги перекрывают конфиг только если заданы явно
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.InputPath = *inputPtr
		case "output":
			cfg.OutputVideo = *outputPtr
		case "frames":
			cfg.FramesDir = *framesPtr
		case "scenario":
			cfg.ScenarioInput = *scenarioPtr
		case "duration":
			cfg.TotalDuration = *durationPtr
		case "width":
			cfg.Width = *widthPtr
		case "height":
			cfg.Height = *heightPtr
		case "dpr":
			cfg.DPR = *dprPtr
		case "fps":
			cfg.FPS = *fpsPtr
		case "workers":
			cfg.Player.Workers = *workersPtr
		case "dpi":
			cfg.Player.DPI = *dpiPtr
		case "quality":
			cfg.Quality = *qualityPtr
		case "theme-threshold":
			cfg.Theme.Threshold = *themePtr
		case "auto-theme":
			cfg.Theme.Auto = *autoThemePtr
		case "measurer":
			cfg.Theme.Measurer = *measurerPtr
		case "qr":
			cfg.QRLink = *qrPtr
		case "mqtt":
			cfg.MQTT.URL = *mqttPtr
		case "stats":
			cfg.ShowStats = *statsPtr
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *modePtr == "scenario" {
		if _, err := engine.GenerateScenarioFile(cfg, ""); err != nil {
			log.Fatalf("[-] Ошибка генерации сценария: %v", err)
		}
		return
	}

	if cfg.ScenarioInput == "latest" {
		latest, err := director.FindLatestScenario()
		if err != nil {
			log.Fatalf("[-] Ошибка: %v", err)
		}
		cfg.ScenarioInput = latest
		fmt.Printf("[*] Выбран сценарий: %s\n", latest)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Некорректные параметры: %v", err)
	}

	src, err := source.Open(cfg.InputPath, cfg.Player)
	if err != nil {
		log.Fatalf("[-] Ошибка инициализации источника: %v", err)
	}
	defer src.Close()

	switch *modePtr {
	case "preview":
		if err := preview.Run(ctx, cfg, src); err != nil {
			log.Fatalf("[-] Ошибка окна: %v", err)
		}
	case "capture":
		if err := runCapture(ctx, cfg, src); err != nil {
			log.Fatalf("[-] Ошибка проекта: %v", err)
		}
	default:
		log.Fatalf("[-] Неизвестный режим: %s", *modePtr)
	}
}

func runCapture(ctx context.Context, cfg *config.Config, src source.Source) error {
	os.MkdirAll("output", 0755)
	if cfg.OutputVideo == "" && cfg.FramesDir == "" {
		cfg.OutputVideo = defaultOutput(cfg)
	}

	if cfg.OutputVideo != "" {
		cfg.VideoEncoder = system.GetBestH264Encoder()
		if cfg.VideoEncoder != "libx264" {
			fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", cfg.VideoEncoder)
		}
		if cfg.Quality == 0 {
			cfg.Quality = system.DefaultQuality(cfg.VideoEncoder)
		}
	}

	project := engine.NewCaptureProject(cfg, src)

	overlays, err := buildOverlays(cfg)
	if err != nil {
		return err
	}
	project.Overlays = overlays

	if cfg.MQTT.URL != "" {
		client, err := effects.Dial(ctx, cfg.MQTT, "keyscroll")
		if err != nil {
			// уведомления необязательны, захват продолжается без них
			log.Printf("[!] MQTT недоступен: %v", err)
		} else {
			notifier := effects.NewMQTTNotifier(client, cfg.MQTT.Topic, src.FrameCount(), func() effects.Theme {
				if project.Theme == nil {
					return effects.Light
				}
				return project.Theme.Theme()
			})
			defer func() {
				notifier.Close()
				st := notifier.Stats()
				fmt.Printf("[*] MQTT: отправлено %d, отброшено %d, ошибок %d\n", st.Published, st.Dropped, st.Failed)
			}()
			project.OnFrame = notifier.OnFrame
			fmt.Printf("[*] MQTT: %s -> %s\n", cfg.MQTT.URL, cfg.MQTT.Topic)
		}
	}

	if err := project.Run(ctx); err != nil {
		return err
	}

	if cfg.OutputVideo != "" {
		fmt.Printf("[+++] Успех! Результат: %s\n", cfg.OutputVideo)
	}
	if cfg.FramesDir != "" {
		fmt.Printf("[+++] Кадры сохранены: %s\n", cfg.FramesDir)
	}
	return nil
}

func buildOverlays(cfg *config.Config) (effects.Chain, error) {
	bar, err := effects.NewThemeBar(cfg.Theme.Light, cfg.Theme.Dark, 0)
	if err != nil {
		return nil, err
	}
	chain := effects.Chain{bar}

	if cfg.QRLink != "" {
		size := int(float64(cfg.Height) * cfg.DPR / 6)
		badge, err := effects.NewQRBadge(cfg.QRLink, size, bar.Light, bar.Dark)
		if err != nil {
			return nil, err
		}
		chain = append(chain, badge)
	}
	return chain, nil
}

func defaultOutput(cfg *config.Config) string {
	nameSource := cfg.InputPath
	if nameSource == "" {
		nameSource = strings.TrimRight(cfg.Player.BasePath, "_-")
	}
	baseName := filepath.Base(nameSource)
	ext := filepath.Ext(baseName)
	nameOnly := strings.TrimSuffix(baseName, ext)
	cleanName := strings.ReplaceAll(nameOnly, " ", "_")
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join("output", fmt.Sprintf("%s_%s.mp4", cleanName, timestamp))
}
