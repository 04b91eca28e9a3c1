package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Mode selects the number picking strategy on the backend.
type Mode int

const (
	ModeRandom Mode = iota
	ModeZodiac
	ModeBirthday
	ModeMixed
)

var modeNames = []string{"random", "zodiac", "birthday", "mixed"}

func (m Mode) String() string {
	if m < ModeRandom || m > ModeMixed {
		return "unknown"
	}
	return modeNames[m]
}

// UnmarshalJSON accepts the numeric form or a name such as "mixed".
func (m *Mode) UnmarshalJSON(b []byte) error {
	n, err := decodeEnum(b, "mode", modeNames)
	if err != nil || n == nil {
		return err
	}
	*m = Mode(*n)
	return nil
}

// Zodiac is one of the twelve Chinese zodiac animals, numbered from 1.
type Zodiac int

const (
	Rat Zodiac = iota + 1
	Ox
	Tiger
	Rabbit
	Dragon
	Snake
	Horse
	Goat
	Monkey
	Rooster
	Dog
	Pig
)

var zodiacNames = []string{"", "rat", "ox", "tiger", "rabbit", "dragon", "snake", "horse", "goat", "monkey", "rooster", "dog", "pig"}

func (z Zodiac) String() string {
	if z < Rat || z > Pig {
		return "unknown"
	}
	return zodiacNames[z]
}

// UnmarshalJSON accepts 1..12 or an animal name such as "Dog".
func (z *Zodiac) UnmarshalJSON(b []byte) error {
	n, err := decodeEnum(b, "animal", zodiacNames)
	if err != nil || n == nil {
		return err
	}
	*z = Zodiac(*n)
	return nil
}

// FixedMode controls how fixed red numbers are placed into tickets.
type FixedMode int

const (
	FixedAlways FixedMode = iota
	FixedRotate
)

var fixedModeNames = []string{"always", "rotate"}

func (f FixedMode) String() string {
	if f < FixedAlways || f > FixedRotate {
		return "unknown"
	}
	return fixedModeNames[f]
}

// UnmarshalJSON accepts the numeric form or "always"/"rotate".
func (f *FixedMode) UnmarshalJSON(b []byte) error {
	n, err := decodeEnum(b, "fixed mode", fixedModeNames)
	if err != nil || n == nil {
		return err
	}
	*f = FixedMode(*n)
	return nil
}

// decodeEnum reads a JSON number or a case-insensitive name from names. It
// returns nil for JSON null.
func decodeEnum(b []byte, kind string, names []string) (*int, error) {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil, nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		return &n, nil
	}
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return nil, fmt.Errorf("%s: want a number or a name, got %s", kind, b)
	}
	for i, candidate := range names {
		if candidate != "" && strings.EqualFold(candidate, name) {
			return &i, nil
		}
	}
	return nil, fmt.Errorf("unknown %s %q", kind, name)
}

// BandTemplateTotal is the number of red balls a band template distributes.
const BandTemplateTotal = 6

// StartBucket asks for Count tickets whose anchor lies in [From, To].
type StartBucket struct {
	From  int `json:"From"`
	To    int `json:"To"`
	Count int `json:"Count"`
}

// BandRangeGo is the flat band layout the backend generator uses.
type BandRangeGo struct {
	LowLo  int `json:"LowLo"`
	LowHi  int `json:"LowHi"`
	MidLo  int `json:"MidLo"`
	MidHi  int `json:"MidHi"`
	HighLo int `json:"HighLo"`
	HighHi int `json:"HighHi"`
}

// BandRange is the older pair-based band layout.
type BandRange struct {
	Low  [2]int `json:"low"`
	Mid  [2]int `json:"mid"`
	High [2]int `json:"high"`
}

// ToGo converts to the flat layout.
func (b BandRange) ToGo() BandRangeGo {
	return BandRangeGo{
		LowLo: b.Low[0], LowHi: b.Low[1],
		MidLo: b.Mid[0], MidHi: b.Mid[1],
		HighLo: b.High[0], HighHi: b.High[1],
	}
}

// BandRangeFromGo converts the flat layout to pairs.
func BandRangeFromGo(b BandRangeGo) BandRange {
	return BandRange{
		Low:  [2]int{b.LowLo, b.LowHi},
		Mid:  [2]int{b.MidLo, b.MidHi},
		High: [2]int{b.HighLo, b.HighHi},
	}
}

// BandTpl is the older wrapped form of a {low, mid, high} template.
type BandTpl struct {
	Vals [3]int `json:"vals"`
}

// BandTemplateSum returns low+mid+high. The backend rejects templates whose
// sum differs from BandTemplateTotal; the client never checks.
func BandTemplateSum(t [3]int) int {
	return t[0] + t[1] + t[2]
}

// GenConfig holds the generation parameters as the backend reads and writes them.
type GenConfig struct {
	Mode     Mode   `json:"Mode"`
	Animal   Zodiac `json:"Animal"`
	Birthday string `json:"Birthday"` // YYYY-MM-DD

	GenerateCount int `json:"GenerateCount"`
	BudgetYuan    int `json:"BudgetYuan"`

	RedFilter  []int `json:"RedFilter"`
	BlueFilter []int `json:"BlueFilter"`
	FixedRed   []int `json:"FixedRed"`

	FMode          FixedMode `json:"FMode"`
	FixedPerTicket int       `json:"FixedPerTicket"`

	MaxOverlapRed   int  `json:"MaxOverlapRed"`
	UsePerNumberCap bool `json:"UsePerNumberCap"`

	StartBuckets []StartBucket `json:"StartBuckets"`
	MaxPerAnchor int           `json:"MaxPerAnchor"`

	Bands          BandRangeGo `json:"Bands"`
	BandTemplates  [][3]int    `json:"BandTemplates"` // {low, mid, high}, sums to 6
	TemplateRepeat int         `json:"TemplateRepeat"`

	// Raw is the body as the backend sent it.
	Raw json.RawMessage `json:"-"`
}

// AppConfig is the name older callers use for GenConfig.
type AppConfig = GenConfig

// legacyConfig holds the snake_case keys older backends serve. Keys that
// differ from GenConfig only by case are already matched by encoding/json.
type legacyConfig struct {
	Count           *int       `json:"count"`
	RedFilter       *[]int     `json:"red_filter"`
	BlueFilter      *[]int     `json:"blue_filter"`
	FixedRed        *[]int     `json:"fixed_red"`
	FixedMode       *FixedMode `json:"fixed_mode"`
	FixedPerTicket  *int       `json:"fixed_per_ticket"`
	MaxOverlapRed   *int       `json:"max_overlap_red"`
	UsePerNumberCap *bool      `json:"use_per_number_cap"`
	BandTemplates   *[]BandTpl `json:"band_templates"`
	TemplateRepeat  *int       `json:"template_repeat"`
}

// UnmarshalJSON decodes the PascalCase shape and falls back to the older
// snake_case keys for fields the body does not carry in PascalCase. Fields
// that fail to decode are left zero and the first such error is returned.
func (c *GenConfig) UnmarshalJSON(b []byte) error {
	type plain GenConfig
	firstErr := json.Unmarshal(b, (*plain)(c))

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		return firstErr
	}
	var old legacyConfig
	if err := json.Unmarshal(b, &old); err != nil && firstErr == nil {
		firstErr = err
	}
	has := func(k string) bool {
		_, ok := keys[k]
		return ok
	}

	if old.Count != nil && !has("GenerateCount") {
		c.GenerateCount = *old.Count
	}
	if old.RedFilter != nil && !has("RedFilter") {
		c.RedFilter = *old.RedFilter
	}
	if old.BlueFilter != nil && !has("BlueFilter") {
		c.BlueFilter = *old.BlueFilter
	}
	if old.FixedRed != nil && !has("FixedRed") {
		c.FixedRed = *old.FixedRed
	}
	if old.FixedMode != nil && !has("FMode") {
		c.FMode = *old.FixedMode
	}
	if old.FixedPerTicket != nil && !has("FixedPerTicket") {
		c.FixedPerTicket = *old.FixedPerTicket
	}
	if old.MaxOverlapRed != nil && !has("MaxOverlapRed") {
		c.MaxOverlapRed = *old.MaxOverlapRed
	}
	if old.UsePerNumberCap != nil && !has("UsePerNumberCap") {
		c.UsePerNumberCap = *old.UsePerNumberCap
	}
	if old.TemplateRepeat != nil && !has("TemplateRepeat") {
		c.TemplateRepeat = *old.TemplateRepeat
	}
	if old.BandTemplates != nil && !has("BandTemplates") {
		c.BandTemplates = make([][3]int, len(*old.BandTemplates))
		for i, t := range *old.BandTemplates {
			c.BandTemplates[i] = t.Vals
		}
	}
	// "bands" collides with "Bands" case-insensitively; the pair layout is
	// told apart by its keys.
	if raw, ok := keys["bands"]; ok && !has("Bands") {
		var pairs BandRange
		if err := json.Unmarshal(raw, &pairs); err == nil {
			c.Bands = pairs.ToGo()
		}
	}
	return firstErr
}

// ConfigPatch is a partial GenConfig. Only non-nil fields are sent, so a patch
// with a single field set serializes to a single key.
type ConfigPatch struct {
	Mode     *Mode   `json:"Mode,omitempty"`
	Animal   *Zodiac `json:"Animal,omitempty"`
	Birthday *string `json:"Birthday,omitempty"`

	GenerateCount *int `json:"GenerateCount,omitempty"`
	BudgetYuan    *int `json:"BudgetYuan,omitempty"`

	RedFilter  *[]int `json:"RedFilter,omitempty"`
	BlueFilter *[]int `json:"BlueFilter,omitempty"`
	FixedRed   *[]int `json:"FixedRed,omitempty"`

	FMode          *FixedMode `json:"FMode,omitempty"`
	FixedPerTicket *int       `json:"FixedPerTicket,omitempty"`

	MaxOverlapRed   *int  `json:"MaxOverlapRed,omitempty"`
	UsePerNumberCap *bool `json:"UsePerNumberCap,omitempty"`

	StartBuckets *[]StartBucket `json:"StartBuckets,omitempty"`
	MaxPerAnchor *int           `json:"MaxPerAnchor,omitempty"`

	Bands          *BandRangeGo `json:"Bands,omitempty"`
	BandTemplates  *[][3]int    `json:"BandTemplates,omitempty"`
	TemplateRepeat *int         `json:"TemplateRepeat,omitempty"`
}

// FullPatch returns a patch that sets every field of cfg.
func FullPatch(cfg GenConfig) ConfigPatch {
	return ConfigPatch{
		Mode:            &cfg.Mode,
		Animal:          &cfg.Animal,
		Birthday:        &cfg.Birthday,
		GenerateCount:   &cfg.GenerateCount,
		BudgetYuan:      &cfg.BudgetYuan,
		RedFilter:       &cfg.RedFilter,
		BlueFilter:      &cfg.BlueFilter,
		FixedRed:        &cfg.FixedRed,
		FMode:           &cfg.FMode,
		FixedPerTicket:  &cfg.FixedPerTicket,
		MaxOverlapRed:   &cfg.MaxOverlapRed,
		UsePerNumberCap: &cfg.UsePerNumberCap,
		StartBuckets:    &cfg.StartBuckets,
		MaxPerAnchor:    &cfg.MaxPerAnchor,
		Bands:           &cfg.Bands,
		BandTemplates:   &cfg.BandTemplates,
		TemplateRepeat:  &cfg.TemplateRepeat,
	}
}

// Ptr returns a pointer to v, for filling ConfigPatch literals.
func Ptr[T any](v T) *T { return &v }

// Combo is one generated ticket.
type Combo struct {
	Reds []int `json:"reds"`
	Blue int   `json:"blue"`
}

// BandShare counts red numbers per band.
type BandShare struct {
	Low  int `json:"low"`
	Mid  int `json:"mid"`
	High int `json:"high"`
}

// OddEven counts odd and even red numbers.
type OddEven struct {
	Odd  int `json:"odd"`
	Even int `json:"even"`
}

// HighLow counts red numbers below and from the mid band start.
type HighLow struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// Stats aggregates a generation batch.
type Stats struct {
	RedFreq   map[int]int `json:"red_freq"`
	BlueFreq  map[int]int `json:"blue_freq"`
	BandShare BandShare   `json:"band_share"`
	OddEven   OddEven     `json:"odd_even"`
	HighLow   HighLow     `json:"high_low"`
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Override bool         `json:"override"`
	Config   *ConfigPatch `json:"config,omitempty"`
}

// GenerateResponse is a generated batch.
type GenerateResponse struct {
	Combos []Combo         `json:"combos"`
	Stats  *Stats          `json:"stats,omitempty"`
	Raw    json.RawMessage `json:"-"`
}

// HistorySummary describes the ingested draw history.
type HistorySummary struct {
	TotalCombos int    `json:"total_combos"`
	TotalRows   int    `json:"total_rows,omitempty"`
	Initialized bool   `json:"initialized,omitempty"`
	StorePath   string `json:"store_path,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Ack is an opaque acknowledgment. Raw always holds the body as received; OK
// is filled when the body is an object carrying an "ok" boolean.
type Ack struct {
	OK  bool            `json:"ok"`
	Raw json.RawMessage `json:"-"`
}

// UploadAck acknowledges a history upload. Typed fields are best effort; Raw
// is authoritative.
type UploadAck struct {
	OK       bool            `json:"ok"`
	Mode     string          `json:"mode,omitempty"`
	Imported int             `json:"imported,omitempty"`
	Summary  *HistorySummary `json:"summary,omitempty"`
	Raw      json.RawMessage `json:"-"`
}

// UploadOptions tunes a history upload.
type UploadOptions struct {
	// Replace overwrites an already initialized history instead of failing.
	Replace bool
}

// Heatmap marks which red numbers hit in each draw of the window.
type Heatmap struct {
	RedMatrix  [][]int `json:"redMatrix"` // 33 rows x window columns, 1 = hit
	BlueVector []int   `json:"blueVector"`

	Raw json.RawMessage `json:"-"`
}

// HotCold ranks numbers by frequency and reports gaps between hits.
type HotCold struct {
	RedFreq    map[int]int     `json:"redFreq"`
	BlueFreq   map[int]int     `json:"blueFreq"`
	TopHotRed  [][2]int        `json:"topHotRed"` // {number, frequency}
	TopColdRed [][2]int        `json:"topColdRed"`
	AvgGapRed  map[int]float64 `json:"avgGapRed"`
	MaxGapRed  map[int]int     `json:"maxGapRed"`
	MA33       []float64       `json:"MA33"`

	Raw json.RawMessage `json:"-"`
}

// Summary aggregates the full draw history.
type Summary struct {
	Odd           int         `json:"odd"`
	Even          int         `json:"even"`
	Low           int         `json:"low"`
	High          int         `json:"high"`
	Area          [3]int      `json:"area"`
	SumMin        float64     `json:"sumMin"`
	SumMax        float64     `json:"sumMax"`
	SumAvg        float64     `json:"sumAvg"`
	ConsecLenDist map[int]int `json:"consecLenDist"`
	ChiSquare     float64     `json:"chiSquare"`
	Entropy       float64     `json:"entropy"`

	Raw json.RawMessage `json:"-"`
}

// Draw is one historical draw.
type Draw struct {
	Issue     string     `json:"issue"`
	DrawDate  string     `json:"draw_date"`
	Reds      []int      `json:"reds"`
	Blue      int        `json:"blue"`
	Source    string     `json:"source,omitempty"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`

	Raw json.RawMessage `json:"-"`
}

func (c *GenConfig) setRaw(b json.RawMessage)        { c.Raw = b }
func (g *GenerateResponse) setRaw(b json.RawMessage) { g.Raw = b }
func (h *HistorySummary) setRaw(b json.RawMessage)   { h.Raw = b }
func (h *Heatmap) setRaw(b json.RawMessage)          { h.Raw = b }
func (h *HotCold) setRaw(b json.RawMessage)          { h.Raw = b }
func (s *Summary) setRaw(b json.RawMessage)          { s.Raw = b }
func (d *Draw) setRaw(b json.RawMessage)             { d.Raw = b }
