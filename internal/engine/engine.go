package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"

	"github.com/ivlev/keyscroll/internal/analyzer"
	"github.com/ivlev/keyscroll/internal/canvas"
	"github.com/ivlev/keyscroll/internal/config"
	"github.com/ivlev/keyscroll/internal/director"
	"github.com/ivlev/keyscroll/internal/effects"
	"github.com/ivlev/keyscroll/internal/player"
	"github.com/ivlev/keyscroll/internal/renderer"
	"github.com/ivlev/keyscroll/internal/scroll"
	"github.com/ivlev/keyscroll/internal/source"
	"github.com/ivlev/keyscroll/internal/system"
	"github.com/ivlev/keyscroll/internal/video"
)

// BenchmarkLog is appended with one line per capture when stats are on
var BenchmarkLog = "benchmark.log"

// CaptureProject plays a scroll script against the sequence player on an
// off-screen canvas and streams every output frame to a sink.
type CaptureProject struct {
	Config   *config.Config
	Source   source.Source
	Scenario *director.Scenario
	Overlays effects.Chain
	// OnFrame receives every frame the player draws, after the theme switch.
	OnFrame func(index int)
	// Sink overrides the sinks built from OutputVideo and FramesDir.
	Sink video.Sink

	Theme  *effects.ThemeSwitcher
	Report Report
}

// Report is the outcome of a capture
type Report struct {
	Frames      int
	Draws       int
	Threshold   int
	LoadTime    time.Duration
	CaptureTime time.Duration
	TotalTime   time.Duration
	Host        system.HostStats
}

func NewCaptureProject(cfg *config.Config, src source.Source) *CaptureProject {
	return &CaptureProject{
		Config: cfg,
		Source: src,
	}
}

func (p *CaptureProject) Run(ctx context.Context) error {
	startTime := time.Now()
	cfg := p.Config
	if err := cfg.Validate(); err != nil {
		return err
	}

	frameCount := p.Source.FrameCount()
	if frameCount == 0 {
		return fmt.Errorf("источник не содержит кадров")
	}

	scenario, err := p.loadScenario()
	if err != nil {
		return err
	}

	threshold, err := p.themeThreshold(ctx)
	if err != nil {
		return err
	}
	p.Theme = effects.NewThemeSwitcher(threshold)
	p.Theme.OnChange(func(t effects.Theme) {
		fmt.Printf("[*] Тема переключена: %s\n", t)
	})

	scaler, err := canvas.ParseScaler(cfg.Player.Scaler)
	if err != nil {
		return err
	}
	bg, err := canvas.ParseColor(cfg.Player.Background)
	if err != nil {
		return err
	}
	cv := canvas.New(cfg.Width, cfg.Height, cfg.DPR, scaler)

	viewport := float64(cfg.Height)
	observer := scroll.NewObserver(scroll.Region{Height: viewport * cfg.RegionScreens}, viewport)

	pl, err := player.New(player.Options{
		Config:     cfg.Player,
		Source:     p.Source,
		Surface:    cv,
		Background: bg,
		OnFrame:    effects.Fanout(p.Theme.OnFrame, p.OnFrame),
	})
	if err != nil {
		return err
	}
	if err := pl.Mount(ctx, observer); err != nil {
		return err
	}
	defer pl.Unmount()

	fmt.Println("--- [PROJECT: KEYSCROLL CAPTURE] ---")
	if w, h, err := p.Source.FrameDimensions(0); err == nil {
		fmt.Printf("[*] Источник: %s | Кадров: %d | %.0fx%.0f\n", inputName(cfg), frameCount, w, h)
	} else {
		fmt.Printf("[*] Источник: %s | Кадров: %d\n", inputName(cfg), frameCount)
	}
	fmt.Printf("[*] Разрешение: %dx%d @ %d FPS | DPR: %.1f | Тиков/с: %d | Сценарий: %.2fs\n", cfg.Width, cfg.Height, cfg.FPS, cv.DPR(), cfg.Player.TickRate, scenario.Duration)
	fmt.Println("-----------------------------")

	loadStart := time.Now()
	if err := p.waitReady(ctx, pl); err != nil {
		return err
	}
	p.Report.LoadTime = time.Since(loadStart)
	fmt.Printf("[>] Кадры загружены за %.2fs\n", p.Report.LoadTime.Seconds())

	out := cv.Image().Bounds()
	sink := p.Sink
	if sink == nil {
		if sink, err = p.openSinks(ctx, out.Dx(), out.Dy()); err != nil {
			return err
		}
	}

	captureStart := time.Now()
	captureErr := p.capture(ctx, pl, observer, cv, scenario, sink)
	closeErr := sink.Close()
	if err := errors.Join(captureErr, closeErr); err != nil {
		return fmt.Errorf("ошибка записи: %w", err)
	}
	p.Report.CaptureTime = time.Since(captureStart)
	p.Report.Draws = pl.Status().Draws
	p.Report.TotalTime = time.Since(startTime)
	p.Report.Host = system.SampleHost()

	if cfg.ShowStats {
		p.printReport()
	}
	return nil
}

func (p *CaptureProject) capture(ctx context.Context, pl *player.Player, observer *scroll.Observer, cv *canvas.Canvas, scenario *director.Scenario, sink video.Sink) error {
	cfg := p.Config
	total := int(math.Round(scenario.Duration*float64(cfg.FPS))) + 1
	bounds := cv.Image().Bounds()
	n := p.Source.FrameCount()
	ticks := 0

	for f := 0; f < total; f++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		progress := renderer.ProgressAt(scenario.Keyframes, float64(f)/float64(cfg.FPS))
		observer.ScrollToProgress(progress)

		// Плеер тикает по своим часам (TickRate), а не по FPS видео
		for due := ticksDue(f, cfg.FPS, cfg.Player.TickRate); ticks < due; ticks++ {
			pl.Tick()
		}

		frame := system.GetImage(bounds)
		pl.WithSurface(func(canvas.Surface) {
			draw.Draw(frame, bounds, cv.Image(), bounds.Min, draw.Src)
		})

		st := pl.Status()
		p.Overlays.Apply(frame, effects.FrameState{
			Index:    st.LastRendered,
			Total:    n,
			Progress: progress,
			Theme:    p.Theme.Theme(),
		})

		err := sink.WriteFrame(frame)
		system.PutImage(frame)
		if err != nil {
			return fmt.Errorf("кадр %d: %w", f, err)
		}
		p.Report.Frames++

		if (f+1)%cfg.FPS == 0 || f == total-1 {
			fmt.Printf("[>] Ready: %d/%d (кадр последовательности %d)\n", f+1, total, st.LastRendered)
		}
	}
	return nil
}

// ticksDue is the number of player ticks elapsed by output frame f.
func ticksDue(f, fps, tickRate int) int {
	return f * tickRate / fps
}

func (p *CaptureProject) waitReady(ctx context.Context, pl *player.Player) error {
	timeout := time.Duration(p.Config.LoadTimeout * float64(time.Second))
	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := pl.WaitReady(waitCtx); err != nil {
		st := pl.Status()
		return fmt.Errorf("последовательность не загружена (%d/%d): %w", st.Loaded, st.Total, err)
	}
	return nil
}

func (p *CaptureProject) loadScenario() (*director.Scenario, error) {
	if p.Scenario != nil {
		return p.Scenario, nil
	}

	cfg := p.Config
	if cfg.ScenarioInput == "" {
		scenario, err := director.NewDirector().GenerateScenario(cfg.ScriptDuration())
		if err != nil {
			return nil, err
		}
		p.Scenario = scenario
		return scenario, nil
	}

	scenario, err := director.ReadScenario(cfg.ScenarioInput)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения сценария: %w", err)
	}
	fmt.Printf("[*] Используется сценарий: %s\n", cfg.ScenarioInput)

	// Если общая длительность задана явно, масштабируем сценарий под нее
	if cfg.TotalDuration > 0 && math.Abs(cfg.TotalDuration-scenario.Duration) > 1e-9 {
		fmt.Printf("[*] Сценарий масштабирован (x%.3f): %.2fs\n", cfg.TotalDuration/scenario.Duration, cfg.TotalDuration)
		scenario.Scale(cfg.TotalDuration)
	}
	p.Scenario = scenario
	return scenario, nil
}

func (p *CaptureProject) themeThreshold(ctx context.Context) (int, error) {
	th := p.Config.Theme
	if !th.Auto {
		p.Report.Threshold = th.Threshold
		return th.Threshold, nil
	}

	fmt.Println("[*] Анализ яркости кадров...")
	m, err := analyzer.NewMeasurer(th.Measurer)
	if err != nil {
		return 0, err
	}
	samples, err := analyzer.ScanSource(ctx, p.Source, m, p.Config.Player.Workers)
	if err != nil {
		return 0, fmt.Errorf("ошибка анализа: %w", err)
	}

	index, ok := analyzer.Crossing(samples, th.Cutoff)
	if !ok {
		log.Printf("[!] Яркость не пересекает %.2f, используется порог %d", th.Cutoff, th.Threshold)
		index = th.Threshold
	} else {
		fmt.Printf("[*] Порог темы: кадр %d\n", index)
	}
	p.Report.Threshold = index
	return index, nil
}

func (p *CaptureProject) openSinks(ctx context.Context, width, height int) (video.Sink, error) {
	cfg := p.Config
	var sinks video.MultiSink

	if cfg.OutputVideo != "" {
		encoder := &video.FFmpegEncoder{Encoder: cfg.VideoEncoder, Quality: cfg.Quality, FPS: cfg.FPS}
		if encoder.Encoder == "" {
			encoder.Encoder = "libx264"
		}
		if encoder.Quality == 0 {
			encoder.Quality = system.DefaultQuality(encoder.Encoder)
		}
		stream, err := encoder.Open(ctx, cfg.OutputVideo, width, height)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, stream)
	}

	if cfg.FramesDir != "" {
		pngs, err := video.NewPNGSink(cfg.FramesDir)
		if err != nil {
			sinks.Close()
			return nil, err
		}
		sinks = append(sinks, pngs)
	}

	if len(sinks) == 0 {
		return nil, fmt.Errorf("не задан ни -output, ни -frames")
	}
	return sinks, nil
}

func (p *CaptureProject) printReport() {
	r := p.Report
	fps := float64(r.Frames) / r.TotalTime.Seconds()

	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Loading: %.2fs\n"+
			"Capture: %.2fs\n"+
			"Frames: %d (draws: %d)\n"+
			"Effective FPS: %.2f\n"+
			"Host: %s\n"+
			"----------------------------\n",
		p.Config.BuildVersion, r.TotalTime.Seconds(), r.LoadTime.Seconds(), r.CaptureTime.Seconds(), r.Frames, r.Draws, fps, r.Host,
	)
	fmt.Print(report)

	// Логирование в файл
	logEntry := fmt.Sprintf("[%s] Build: %s | Input: %s | Frames: %d | Total: %.2fs | Load: %.2fs | Capture: %.2fs | FPS: %.2f | %s\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		inputName(p.Config),
		r.Frames,
		r.TotalTime.Seconds(),
		r.LoadTime.Seconds(),
		r.CaptureTime.Seconds(),
		fps,
		r.Host,
	)

	f, err := os.OpenFile(BenchmarkLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		fmt.Printf("[!] Не удалось записать %s: %v\n", BenchmarkLog, err)
	}
}

// GenerateScenarioFile writes the default scroll script for cfg and returns
// its path.
func GenerateScenarioFile(cfg *config.Config, outputPath string) (string, error) {
	fmt.Println("[*] Режим генерации сценария...")

	scenario, err := director.NewDirector().GenerateScenario(cfg.ScriptDuration())
	if err != nil {
		return "", err
	}
	if outputPath == "" {
		outputPath = director.GenerateScenarioPath()
	}
	if err := director.WriteScenario(scenario, outputPath); err != nil {
		return "", err
	}

	fmt.Printf("[+++] Успех! Сценарий сохранен: %s\n", outputPath)
	return outputPath, nil
}

func inputName(cfg *config.Config) string {
	if cfg.InputPath == "" {
		return filepath.Base(cfg.Player.BasePath) + "*"
	}
	return filepath.Base(cfg.InputPath)
}
