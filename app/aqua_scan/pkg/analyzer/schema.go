package analyzer

import (
	"encoding/json"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/eino-contrib/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// schemaName 结构化输出的名称
const schemaName = "water_quality_analysis"

type field struct {
	name   string
	schema *jsonschema.Schema
}

func str(desc string) *jsonschema.Schema              { return &jsonschema.Schema{Type: "string", Description: desc} }
func num(desc string) *jsonschema.Schema              { return &jsonschema.Schema{Type: "number", Description: desc} }
func arr(items *jsonschema.Schema) *jsonschema.Schema { return &jsonschema.Schema{Type: "array", Items: items} }

func enum(desc string, values ...string) *jsonschema.Schema {
	s := str(desc)
	for _, v := range values {
		s.Enum = append(s.Enum, v)
	}
	return s
}

// nullable 严格模式下所有字段必填，可选字段用 null 表示缺失
func nullable(s *jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{s, {Type: "null"}}}
}

// object 所有字段都列入 required，且不允许额外字段
func object(fields ...field) *jsonschema.Schema {
	props := orderedmap.New[string, *jsonschema.Schema]()
	required := make([]string, 0, len(fields))
	for _, f := range fields {
		props.Set(f.name, f.schema)
		required = append(required, f.name)
	}
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

// resultSchema 分析结果的输出结构，不含 id、timestamp、location
var resultSchema = object(
	field{"riskLevel", enum("SAFE, CAUTION, or UNSAFE", "SAFE", "CAUTION", "UNSAFE")},
	field{"score", num("Safety score from 0-100")},
	field{"summary", str("Professional summary")},
	field{"simpleExplanation", str("Clear, simple language explanation for the user.")},
	field{"parameters", nullable(object(
		field{"pH", nullable(num(""))},
		field{"tds", nullable(num(""))},
		field{"turbidity", nullable(str(""))},
		field{"nitrates", nullable(num(""))},
		field{"chlorine", nullable(num(""))},
		field{"contaminants", nullable(arr(str("")))},
	))},
	field{"alerts", arr(object(
		field{"title", str("")},
		field{"description", str("")},
		field{"severity", enum("high or medium", "high", "medium")},
	))},
	field{"recommendations", arr(str(""))},
)

// responseFormat 以 json_schema 严格模式声明输出结构
func responseFormat() *openai.ChatCompletionResponseFormat {
	return &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:        schemaName,
			Description: "Water quality assessment of one sample",
			Strict:      true,
			JSONSchema:  resultSchema,
		},
	}
}

// schemaText 序列化后的 schema，同时嵌入系统提示词，兼容忽略 response_format 的服务
func schemaText() string {
	b, _ := json.MarshalIndent(resultSchema, "", "  ")
	return string(b)
}
