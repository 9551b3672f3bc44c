package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"jobscout/internal/model"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Scraper 抓取统一接口。
// Search 永远返回切片：传输错误、状态码错误均降级为空结果（记日志），
// 单条记录解析失败只丢弃该条，不影响同页其余记录。
type Scraper interface {
	Name() string
	Search(ctx context.Context, keywords, location string, opts Options) []model.Job
}

// Options 提供各平台可选过滤条件，零值表示未设置。
type Options struct {
	Page            string  `json:"page,omitempty"`
	DatePosted      string  `json:"date_posted,omitempty"`
	JobType         string  `json:"job_type,omitempty"`
	ExperienceLevel string  `json:"experience_level,omitempty"`
	Remote          bool    `json:"remote,omitempty"`
	SalaryMin       float64 `json:"salary_min,omitempty"`
	MaxDaysOld      int     `json:"max_days_old,omitempty"`
	ResultsPerPage  int     `json:"results_per_page,omitempty"`
	Sort            string  `json:"sort,omitempty"`
	Locality        string  `json:"locality,omitempty"`
}

// ToMap 转为搜索历史记录的参数字典，忽略零值。
func (o Options) ToMap() map[string]any {
	m := map[string]any{}
	data, err := json.Marshal(o)
	if err != nil {
		return m
	}
	_ = json.Unmarshal(data, &m)
	return m
}

const requestTimeout = 30 * time.Second

func defaultHTTPClient(client *http.Client) *http.Client {
	if client == nil {
		return &http.Client{Timeout: requestTimeout}
	}
	return client
}

// getJSON 发起 GET 请求并解析顶层 JSON 对象。
func getJSON(ctx context.Context, client *http.Client, endpoint string, headers map[string]string, query url.Values) (map[string]any, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return data, nil
}

// listField 返回指定键对应的数组，缺失或类型不符时为空。
func listField(data map[string]any, key string) []any {
	rows, _ := data[key].([]any)
	return rows
}

// externalID 以 "{source}_{平台原生ID}" 生成全局唯一键。
func externalID(source, nativeID string) string {
	return source + "_" + nativeID
}

// idField 依次取首个非空 ID 字段，容忍字符串与数字两种形态。
func idField(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		case float64:
			return strings.TrimSuffix(strconv.FormatFloat(v, 'f', -1, 64), ".0")
		}
	}
	return ""
}

// stringField 依次取首个非空字符串字段。
func stringField(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := raw[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// nestedString 处理 "字符串或嵌套对象" 两种形态：
// 字段为对象时取 subKey，为纯字符串时直接返回，其余情况为空。
func nestedString(raw map[string]any, key, subKey string) string {
	switch v := raw[key].(type) {
	case map[string]any:
		return stringField(v, subKey)
	case string:
		return v
	}
	return ""
}

// nestedBool 取嵌套对象中的布尔字段，缺失为 false。
func nestedBool(raw map[string]any, key, subKey string) bool {
	obj, ok := raw[key].(map[string]any)
	if !ok {
		return false
	}
	b, _ := obj[subKey].(bool)
	return b
}

// floatField 取浮点字段，容忍数字与数字字符串，缺失返回 nil。
func floatField(raw map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case float64:
			f := v
			return &f
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return &f
			}
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// nestedFloat 取嵌套对象中的浮点字段，如 salary.min。
func nestedFloat(raw map[string]any, key, subKey string) *float64 {
	obj, ok := raw[key].(map[string]any)
	if !ok {
		return nil
	}
	return floatField(obj, subKey)
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseDate 支持毫秒时间戳与若干 ISO 风格字符串，解析失败返回 nil。
func parseDate(v any) *time.Time {
	switch d := v.(type) {
	case float64:
		if d <= 0 {
			return nil
		}
		t := time.UnixMilli(int64(d)).UTC()
		return &t
	case json.Number:
		if ms, err := d.Int64(); err == nil && ms > 0 {
			t := time.UnixMilli(ms).UTC()
			return &t
		}
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				t = t.UTC()
				return &t
			}
		}
	}
	return nil
}

// htmlToText 去除描述中的 HTML 标签，保留纯文本。
// 部分平台（如 Adzuna）的描述字段混有标记。
func htmlToText(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return s
	}
	node, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return strings.TrimSpace(sb.String())
}

// dropRecord 统一记录单条解析失败。
func dropRecord(logger *zap.Logger, source string, err error) {
	logger.Warn("drop malformed record", zap.String("source", source), zap.Error(err))
}
