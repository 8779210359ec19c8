package layout

// BuildOptions 配置布局阶段所需的依赖，例如字形度量后端。
type BuildOptions struct {
	Typesetter Typesetter
	// Resolution 为每毫米的整数布局单位数，<=0 时取 DefaultResolution。
	Resolution Resolution
	Debug      DebugOptions
}

// DebugOptions 控制调试相关输出。
type DebugOptions struct {
	RawUnits bool // 在调试 JSON 中输出 debug.rawUnits 影子字段
	Spans    bool // 在调试 JSON 中输出整数单位下的原始 span
}

// Typesetter 为一段文本提供字形度量。chars 为已切分的字符（字素簇），
// 返回的 Advances 必须与 chars 一一对应。同一字体与字号下结果必须稳定。
type Typesetter interface {
	MeasureText(chars []string, font FontResource, fontSize float64) (TextMetrics, error)
}

// TextMetrics 以 mm 表示的度量结果。
type TextMetrics struct {
	Advances   []float64 `json:"advances"`
	SpaceWidth float64   `json:"spaceWidth"`
	LineHeight float64   `json:"lineHeight"` // 段落顶部到首行基线
	LinePitch  float64   `json:"linePitch"`  // 基线间距
	Descent    float64   `json:"descent"`    // 基线以下部分，正数
}

func (o BuildOptions) resolution() Resolution {
	if o.Resolution <= 0 {
		return DefaultResolution
	}
	return o.Resolution
}
