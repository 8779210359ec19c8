package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/tidwall/gjson"

	"github.com/ByLCY/justify/dsl"
	"github.com/ByLCY/justify/layout"
	hbmetrics "github.com/ByLCY/justify/metrics/harfbuzz"
	sfntmetrics "github.com/ByLCY/justify/metrics/sfnt"
	"github.com/ByLCY/justify/renderer"
	canvasrenderer "github.com/ByLCY/justify/renderer/canvas"
	"github.com/ByLCY/justify/renderer/term"
)

type options struct {
	input         string
	output        string
	format        string
	metrics       string
	debug         string
	debugRawUnits bool
	debugSpans    bool
	data          []byte
	resolution    float64
}

func main() {
	input := flag.String("in", "examples/essay.justify", "DSL 文件路径")
	output := flag.String("out", "", "输出路径，默认与输入同名并使用 -format 扩展名")
	format := flag.String("format", canvasrenderer.FormatPDF, "输出格式：pdf 或 svg")
	metrics := flag.String("metrics", "canvas", "字形度量后端：canvas、sfnt 或 harfbuzz")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	debugRawUnits := flag.Bool("debug-raw-units", false, "在调试 JSON 中输出 debug.rawUnits 影子字段")
	debugSpans := flag.Bool("debug-spans", false, "在调试 JSON 中输出整数单位下的原始 span")
	dataJSON := flag.String("data", "", "绑定到 DSL 的 JSON 数据")
	resolution := flag.Float64("resolution", float64(layout.DefaultResolution), "每毫米的整数布局单位数")
	preview := flag.Bool("preview", false, "在终端中预览两端对齐效果，按 q 退出")
	verbose := flag.Bool("v", false, "输出布局日志到 stderr")
	flag.Parse()

	if *verbose {
		layout.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	var data []byte
	if *dataJSON != "" {
		if !gjson.Valid(*dataJSON) {
			log.Fatalf("解析 data JSON 失败: 不是合法的 JSON")
		}
		data = []byte(*dataJSON)
	}

	if *preview {
		if err := runPreview(*input, data); err != nil {
			log.Fatalf("终端预览失败: %v", err)
		}
		return
	}

	opts := options{
		input:         *input,
		output:        *output,
		format:        strings.ToLower(*format),
		metrics:       *metrics,
		debug:         *debug,
		debugRawUnits: *debugRawUnits,
		debugSpans:    *debugSpans,
		data:          data,
		resolution:    *resolution,
	}
	if opts.output == "" {
		opts.output = strings.TrimSuffix(opts.input, filepath.Ext(opts.input)) + "." + opts.format
	}
	if err := run(opts); err != nil {
		log.Fatalf("生成 %s 失败: %v", strings.ToUpper(opts.format), err)
	}
	fmt.Printf("已生成 %s：%s\n", strings.ToUpper(opts.format), opts.output)
}

// run 串联解析、布局与渲染。
func run(opts options) error {
	doc, err := parseFile(opts.input)
	if err != nil {
		return err
	}

	baseDir := filepath.Dir(opts.input)
	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{BaseDir: baseDir, Format: opts.format})
	ts, err := typesetter(opts.metrics, baseDir, r)
	if err != nil {
		return err
	}

	result, err := layout.Build(doc, opts.data, layout.BuildOptions{
		Typesetter: ts,
		Resolution: layout.Resolution(opts.resolution),
		Debug:      layout.DebugOptions{RawUnits: opts.debugRawUnits, Spans: opts.debugSpans},
	})
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}

	if opts.debug != "" {
		if err := writeDebug(result, opts.debug); err != nil {
			return err
		}
	}
	return render(r, result, opts.output)
}

func parseFile(path string) (*dsl.Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开 DSL 文件 %s: %w", path, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("解析 DSL 失败: %w", err)
	}
	return doc, nil
}

// typesetter 选择字形度量后端；canvas 后端与渲染使用同一套字体。
func typesetter(name, baseDir string, r *canvasrenderer.Renderer) (layout.Typesetter, error) {
	switch strings.ToLower(name) {
	case "", "canvas":
		return r, nil
	case "sfnt":
		return sfntmetrics.New(baseDir), nil
	case "harfbuzz", "hb":
		return hbmetrics.New(baseDir), nil
	default:
		return nil, fmt.Errorf("未知的度量后端：%s", name)
	}
}

func render(r renderer.Renderer, result *layout.Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	out, err := r.Render(result)
	if err != nil {
		return fmt.Errorf("渲染失败: %w", err)
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	return nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

// runPreview 在终端中按屏幕宽度排版文档中的全部段落。
func runPreview(inputPath string, data []byte) error {
	doc, err := parseFile(inputPath)
	if err != nil {
		return err
	}
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("创建终端屏幕失败: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("初始化终端失败: %w", err)
	}
	defer screen.Fini()

	p := &term.Preview{
		Paragraphs: layout.Texts(doc, data),
		Style:      tcell.StyleDefault,
		Margin:     2,
	}
	return p.Run(screen)
}
