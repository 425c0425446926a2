package ai

import (
	"errors"
	"fmt"
)

// Commentary 是模型对单只基金分析结果的点评。
type Commentary struct {
	Summary     string  `json:"summary"`
	RiskComment string  `json:"risk_comment"`
	Rating      string  `json:"rating"`
	Confidence  float64 `json:"confidence"`
}

// Validate 校验模型输出的点评字段。
func (c Commentary) Validate() error {
	if c.Summary == "" {
		return errors.New("点评 summary 不能为空")
	}
	switch c.Rating {
	case "POSITIVE", "NEUTRAL", "NEGATIVE":
	default:
		return fmt.Errorf("非法评级 %q，仅支持 POSITIVE/NEUTRAL/NEGATIVE", c.Rating)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence 必须位于[0,1]，当前为 %f", c.Confidence)
	}
	return nil
}
