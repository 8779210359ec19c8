package layout

// 该文件定义布局结果与资源描述，供布局计算、渲染与调试 JSON 共用。
// 除特别说明外，长度单位均为 mm。

// Result 保存布局后的页面与资源信息。
type Result struct {
	Pages     []Page       `json:"pages"`
	Resources ResourceSet  `json:"resources"`
	Meta      DocumentMeta `json:"meta"`
}

// ResourceSet 记录解析出的字体、颜色与样式定义。
type ResourceSet struct {
	Fonts     map[string]FontResource `json:"fonts"`
	FontOrder []string                `json:"fontOrder"` // 字体的声明顺序
	Colors    map[string]Color        `json:"colors"`
	Styles    map[string]Style        `json:"styles"`
}

// FontResource 描述字体资源，src 可以是文件路径或 builtin:* 形式。
type FontResource struct {
	Name      string `json:"name"`
	Src       string `json:"src"`
	Style     string `json:"style"`
	Base      string `json:"base"`      // builtin 模式下记录内置字体名
	Family    string `json:"family"`    // 渲染器使用的 Family 名称
	IsBuiltin bool   `json:"isBuiltin"` // 是否为内建字体
	Fallback  string `json:"fallback"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Page 记录页面尺寸、边距与本页的段落。
type Page struct {
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Margin     Margin      `json:"margin"`
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Margin 以毫米为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Paragraph 是一段两端对齐文本在某一页上的部分。
// X/Y 为段落框左上角的页面坐标，词的坐标相对于该点。
type Paragraph struct {
	X          float64         `json:"x"`
	Y          float64         `json:"y"`
	Width      float64         `json:"width"`
	Height     float64         `json:"height"`
	Font       string          `json:"font"`
	FontSize   float64         `json:"fontSize"`
	Color      Color           `json:"color"`
	LineHeight float64         `json:"lineHeight"` // 首行基线到段落顶部的距离
	LinePitch  float64         `json:"linePitch"`  // 相邻基线间距
	Descent    float64         `json:"descent"`
	LineCount  int             `json:"lineCount"`
	Words      []PlacedWord    `json:"words"`
	Continued  bool            `json:"continued,omitempty"` // 承接上一页的同一段落
	Truncated  bool            `json:"truncated,omitempty"` // 有字符宽于行宽，其后内容未排
	Debug      *ParagraphDebug `json:"debug,omitempty"`
}

// PlacedWord 是已定位的一个词。Start/End 为字符（字素簇）下标，
// X 为词左端，Y 为基线，均相对于所在段落的左上角。
type PlacedWord struct {
	Text  string  `json:"text"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// ParagraphDebug holds optional debug info displayed only when enabled by BuildOptions.
type ParagraphDebug struct {
	RawUnits   *RawUnits   `json:"rawUnits,omitempty"`
	Resolution float64     `json:"resolution,omitempty"`
	Spans      []SpanDebug `json:"spans,omitempty"`
}

// SpanDebug mirrors a kernel span in integer layout units.
type SpanDebug struct {
	Start int `json:"start"`
	End   int `json:"end"`
	X     int `json:"x"`
	Y     int `json:"y"`
}

// RawUnits describes original author-specified units for key fields.
type RawUnits struct {
	FontSize   *RawLengthJSON     `json:"fontSize,omitempty"`
	LineHeight *RawLineHeightJSON `json:"lineHeight,omitempty"`
}

// RawLengthJSON is a JSON-friendly representation of Length.
type RawLengthJSON struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// RawLineHeightJSON is a JSON-friendly representation of LineHeightSpec.
type RawLineHeightJSON struct {
	Kind   string  `json:"kind"` // "factor" | "absolute"
	Factor float64 `json:"factor,omitempty"`
	Value  float64 `json:"value,omitempty"`
	Unit   string  `json:"unit,omitempty"`
}

// Style 用于描述可继承的文本样式。
type Style struct {
	Name    string            `json:"name"`
	Extends string            `json:"extends,omitempty"`
	Props   map[string]string `json:"props"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
