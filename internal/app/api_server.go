package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"fundlens/internal/planner"
)

// startAPIServer 启动只读查询接口与投资测算接口。
func startAPIServer(ctx context.Context, orch *orchestrator, port int, logger *zap.Logger) error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/reports", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, orch.Results(), logger)
	})

	mux.HandleFunc("GET /api/reports/{code}", func(w http.ResponseWriter, r *http.Request) {
		payload, ok := orch.Result(r.PathValue("code"))
		if !ok {
			http.Error(w, "未找到该基金的分析结果", http.StatusNotFound)
			return
		}
		writeJSON(w, payload, logger)
	})

	mux.HandleFunc("GET /api/reports/{code}/rolling", func(w http.ResponseWriter, r *http.Request) {
		rows, ok := orch.Rolling(r.PathValue("code"))
		if !ok {
			http.Error(w, "未找到该基金的滚动收益表", http.StatusNotFound)
			return
		}
		writeJSON(w, rows, logger)
	})

	mux.HandleFunc("GET /api/snapshots", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit := 50
		if qs := q.Get("limit"); qs != "" {
			if v, err := strconv.Atoi(qs); err == nil && v > 0 {
				if v > 500 {
					v = 500
				}
				limit = v
			}
		}

		snapshots, err := orch.repo.ListSnapshots(r.Context(), strings.TrimSpace(q.Get("scheme")), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, snapshots, logger)
	})

	mux.HandleFunc("GET /api/planner/sip", func(w http.ResponseWriter, r *http.Request) {
		amount, rate, years, adjust, err := plannerParams(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		result, err := orch.calculator.SIP(amount, rate, years, adjust)
		if err != nil {
			writePlannerError(w, err)
			return
		}
		writeJSON(w, result, logger)
	})

	mux.HandleFunc("GET /api/planner/lumpsum", func(w http.ResponseWriter, r *http.Request) {
		amount, rate, years, adjust, err := plannerParams(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		result, err := orch.calculator.Lumpsum(amount, rate, years, adjust)
		if err != nil {
			writePlannerError(w, err)
			return
		}
		writeJSON(w, result, logger)
	})

	mux.HandleFunc("GET /api/planner/future-value", func(w http.ResponseWriter, r *http.Request) {
		amount, rate, years, _, err := plannerParams(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		value, err := orch.calculator.FutureValue(amount, rate, years)
		if err != nil {
			writePlannerError(w, err)
			return
		}
		writeJSON(w, map[string]float64{"value": value}, logger)
	})

	mux.HandleFunc("GET /api/planner/present-value", func(w http.ResponseWriter, r *http.Request) {
		amount, rate, years, _, err := plannerParams(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		value, err := orch.calculator.PresentValue(amount, rate, years)
		if err != nil {
			writePlannerError(w, err)
			return
		}
		writeJSON(w, map[string]float64{"value": value}, logger)
	})

	mux.HandleFunc("GET /api/planner/sip-backtest", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		schemeCode := strings.TrimSpace(q.Get("scheme"))
		amount, err := strconv.ParseFloat(q.Get("amount"), 64)
		if err != nil {
			http.Error(w, "amount 参数无法解析", http.StatusBadRequest)
			return
		}

		series, ok := orch.Series(schemeCode)
		if !ok {
			http.Error(w, "未找到该基金的净值序列", http.StatusNotFound)
			return
		}

		result, err := planner.SimulateSIP(series, amount)
		if err != nil {
			writePlannerError(w, err)
			return
		}
		writeJSON(w, result, logger)
	})

	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			logger.Warn("关闭查询接口失败", zap.Error(err))
		}
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("查询接口异常", zap.Error(err))
		}
	}()

	logger.Info("查询接口已启动", zap.String("addr", addr))
	return nil
}

func plannerParams(r *http.Request) (amount, rate float64, years int, adjust bool, err error) {
	q := r.URL.Query()

	amount, err = strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil {
		return 0, 0, 0, false, errors.New("amount 参数无法解析")
	}
	rate, err = strconv.ParseFloat(q.Get("rate"), 64)
	if err != nil {
		return 0, 0, 0, false, errors.New("rate 参数无法解析")
	}
	years, err = strconv.Atoi(q.Get("years"))
	if err != nil {
		return 0, 0, 0, false, errors.New("years 参数无法解析")
	}
	adjust = strings.EqualFold(q.Get("adjust"), "true")
	return amount, rate, years, adjust, nil
}

func writePlannerError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, planner.ErrInvalidInput) || errors.Is(err, planner.ErrDivisionByZero) {
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, payload interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn("写入响应失败", zap.Error(err))
	}
}
