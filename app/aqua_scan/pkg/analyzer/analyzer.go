package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/config"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/imaging"
	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/logger"
	dm "github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/model"
)

var (
	// ErrInvalidRequest 输入不合法：图片与手动数据必须且只能提供一个
	ErrInvalidRequest = errors.New("invalid analysis request")
	// ErrAnalysisFailed 模型调用失败或返回内容不符合约定
	ErrAnalysisFailed = errors.New("analysis failed")
)

// Generator 对话模型的最小接口，openai.ChatModel 满足该接口
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Request 一次分析请求
type Request struct {
	// Image 原始图片字节或 data URI 解码后的内容
	Image    []byte
	Manual   *dm.DroneData
	Language dm.Language
}

// Analyzer 水样分析器
type Analyzer struct {
	gen       Generator
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[*schema.Message]
	validate  *validator.Validate
	imageOpts imaging.Options
	now       func() time.Time
}

// NewChatModel 根据配置创建 OpenAI 兼容的对话模型
func NewChatModel(cfg *config.Config) (Generator, error) {
	chatModel, err := openai.NewChatModel(context.Background(), chatModelConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}
	return chatModel, nil
}

// chatModelConfig 模型配置，输出结构通过 response_format 声明
func chatModelConfig(cfg *config.Config) *openai.ChatModelConfig {
	return &openai.ChatModelConfig{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		Timeout:        cfg.LLM.Timeout,
		ResponseFormat: responseFormat(),
	}
}

// New 创建分析器
func New(gen Generator, cfg *config.Config) *Analyzer {
	// 初始化限流器
	limit := rate.Limit(float64(cfg.Concurrency.RPM) / 60.0)
	burst := cfg.Concurrency.QPS
	limiter := rate.NewLimiter(limit, burst)

	maxFailures := cfg.Breaker.MaxFailures
	breaker := gobreaker.NewCircuitBreaker[*schema.Message](gobreaker.Settings{
		Name:    "llm",
		Timeout: cfg.Breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Log.Warnf("熔断器 [%s] 状态变化: %s -> %s", name, from, to)
		},
	})

	return &Analyzer{
		gen:      gen,
		limiter:  limiter,
		breaker:  breaker,
		validate: validator.New(),
		imageOpts: imaging.Options{
			MaxDimension: cfg.Image.MaxDimension,
			Quality:      cfg.Image.Quality,
		},
		now: time.Now,
	}
}

// Analyze 构造请求并调用模型，返回校验后的分析结果
// 结果不带位置信息，由调用方补充
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*dm.AnalysisResult, error) {
	if err := a.Validate(req); err != nil {
		return nil, err
	}
	if req.Language == "" {
		req.Language = dm.English
	}

	var img *imaging.Image
	if len(req.Image) > 0 {
		var err error
		if img, err = imaging.Prepare(req.Image, a.imageOpts); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}

	messages := a.buildMessages(req, img)

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	start := a.now()
	resp, err := a.breaker.Execute(func() (*schema.Message, error) {
		return a.gen.Generate(ctx, messages)
	})
	if err != nil {
		logger.Log.Errorf("模型调用失败: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	logger.Log.Infof("模型调用完成，耗时 %v", a.now().Sub(start))
	if resp == nil {
		return nil, fmt.Errorf("%w: empty model response", ErrAnalysisFailed)
	}

	result, err := a.parseReply(resp.Content)
	if err != nil {
		logger.Log.Errorf("模型返回内容无效: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	result.ID = uuid.NewString()
	result.Timestamp = a.now().UTC()
	return result, nil
}

// Validate 只检查输入，不调用模型
// 图片只读取头部信息，完整解码在 Analyze 中进行
func (a *Analyzer) Validate(req Request) error {
	hasImage := len(req.Image) > 0
	if hasImage == (req.Manual != nil) {
		return fmt.Errorf("%w: exactly one of image or manual data is required", ErrInvalidRequest)
	}
	if hasImage {
		if err := imaging.Check(req.Image); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		return nil
	}
	if err := a.validate.Struct(req.Manual); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

func (a *Analyzer) buildMessages(req Request, img *imaging.Image) []*schema.Message {
	prompt := buildPrompt(req.Language, img != nil, req.Manual)
	system := &schema.Message{Role: schema.System, Content: fmt.Sprintf(systemPrompt, schemaText())}

	if img == nil {
		return []*schema.Message{system, {Role: schema.User, Content: prompt}}
	}
	return []*schema.Message{
		system,
		{
			Role: schema.User,
			MultiContent: []schema.ChatMessagePart{
				{Type: schema.ChatMessagePartTypeText, Text: prompt},
				{
					Type: schema.ChatMessagePartTypeImageURL,
					ImageURL: &schema.ChatMessageImageURL{
						URL:      img.DataURI(),
						MIMEType: img.MIMEType,
					},
				},
			},
		},
	}
}

// reply 模型原始输出，指针字段用于区分缺失与零值
type reply struct {
	RiskLevel         *string      `json:"riskLevel" validate:"required,oneof=SAFE CAUTION UNSAFE"`
	Score             *float64     `json:"score" validate:"required,min=0,max=100"`
	Summary           *string      `json:"summary" validate:"required"`
	SimpleExplanation *string      `json:"simpleExplanation" validate:"required"`
	Parameters        *replyParams `json:"parameters"`
	Alerts            []replyAlert `json:"alerts" validate:"required,dive"`
	Recommendations   []string     `json:"recommendations" validate:"required"`
}

type replyParams struct {
	PH           *float64 `json:"pH" validate:"omitempty,min=0,max=14"`
	TDS          *float64 `json:"tds" validate:"omitempty,min=0"`
	Turbidity    *string  `json:"turbidity"`
	Nitrates     *float64 `json:"nitrates" validate:"omitempty,min=0"`
	Chlorine     *float64 `json:"chlorine" validate:"omitempty,min=0"`
	Contaminants []string `json:"contaminants"`
}

type replyAlert struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity" validate:"required,oneof=high medium"`
}

// parseReply 去除 markdown 代码块标记后解析并校验
func (a *Analyzer) parseReply(content string) (*dm.AnalysisResult, error) {
	cleanContent := strings.TrimSpace(content)
	cleanContent = strings.TrimPrefix(cleanContent, "```json")
	cleanContent = strings.TrimPrefix(cleanContent, "```")
	cleanContent = strings.TrimSuffix(cleanContent, "```")
	cleanContent = strings.TrimSpace(cleanContent)

	var r reply
	if err := json.Unmarshal([]byte(cleanContent), &r); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	if r.RiskLevel != nil {
		v := strings.ToUpper(strings.TrimSpace(*r.RiskLevel))
		r.RiskLevel = &v
	}
	for i := range r.Alerts {
		r.Alerts[i].Severity = strings.ToLower(strings.TrimSpace(r.Alerts[i].Severity))
	}
	if err := a.validate.Struct(&r); err != nil {
		return nil, fmt.Errorf("schema violation: %w", err)
	}

	result := &dm.AnalysisResult{
		RiskLevel:         dm.RiskLevel(*r.RiskLevel),
		Score:             *r.Score,
		Summary:           *r.Summary,
		SimpleExplanation: *r.SimpleExplanation,
		Alerts:            make([]dm.HealthAlert, 0, len(r.Alerts)),
		Recommendations:   r.Recommendations,
	}
	if p := r.Parameters; p != nil {
		result.Parameters = dm.WaterParameters{
			PH:           p.PH,
			TDS:          p.TDS,
			Turbidity:    p.Turbidity,
			Nitrates:     p.Nitrates,
			Chlorine:     p.Chlorine,
			Contaminants: p.Contaminants,
		}
	}
	for _, al := range r.Alerts {
		result.Alerts = append(result.Alerts, dm.HealthAlert{
			Title:       al.Title,
			Description: al.Description,
			Severity:    dm.Severity(al.Severity),
		})
	}

	if inconsistent(result.RiskLevel, result.Score) {
		result.Flagged = true
		logger.Log.Warnf("安全等级 %s 与评分 %v 不一致", result.RiskLevel, result.Score)
	}
	return result, nil
}

// inconsistent 等级与评分方向明显矛盾
func inconsistent(level dm.RiskLevel, score float64) bool {
	switch level {
	case dm.RiskSafe:
		return score < 40
	case dm.RiskUnsafe:
		return score > 60
	}
	return false
}
