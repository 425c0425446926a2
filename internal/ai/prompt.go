package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"fundlens/internal/report"
)

const commentaryTemplate = `
你是一位专业的基金分析师。以下是某只基金相对基准的年化收益与风险指标，
收益与 Alpha 为百分比，风险与夏普比率为小数，null 表示历史数据不足。

分析数据：
{{ .ReportJSON }}

请基于数据给出客观点评：
1. 概括基金相对基准的长期表现；
2. 结合平均风险、下行风险与夏普比率评估风险收益特征；
3. 数据不足的窗口不要臆测，明确指出即可。

请严格输出唯一的 JSON 对象，格式如下：
{
  "summary": "...",                    // 2-3句话的表现概括
  "risk_comment": "...",              // 风险特征提示
  "rating": "POSITIVE|NEUTRAL|NEGATIVE", // 相对基准的综合评级
  "confidence": 0.0-1.0                  // 点评信心度
}

注意事项：
- 所有字段均需填写；
- 不要输出 JSON 之外的任何内容。
`

var tmpl = template.Must(template.New("commentary").Parse(commentaryTemplate))

type promptContext struct {
	ReportJSON string
}

// BuildPrompt 将分析报告渲染成点评提示词。
func BuildPrompt(rep report.Report) (string, error) {
	body, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化分析报告失败: %w", err)
	}

	var buf bytes.Buffer
	if err = tmpl.Execute(&buf, promptContext{ReportJSON: string(body)}); err != nil {
		return "", fmt.Errorf("渲染提示词失败: %w", err)
	}

	return buf.String(), nil
}
