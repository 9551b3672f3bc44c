package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"jobscout/internal/model"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// DefaultMaxJobs 批量分析的默认上限。
const DefaultMaxJobs = 50

// LLMClient 抽象大模型调用，便于测试注入。
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Analysis 对应 LLM 结构化提取的 JSON 响应。
type Analysis struct {
	RequiredSkills      []string `json:"required_skills"`
	PreferredSkills     []string `json:"preferred_skills"`
	ExperienceYears     int      `json:"experience_years"`
	EducationLevel      string   `json:"education_level"`
	RemoteFriendly      bool     `json:"remote_friendly"`
	KeyResponsibilities []string `json:"key_responsibilities"`
	Technologies        []string `json:"technologies"`
	SoftSkills          []string `json:"soft_skills"`
	SalaryIndicators    string   `json:"salary_indicators"`
	Summary             string   `json:"summary"`
}

// IsEmpty 判断是否为失败降级产生的空提取。
func (a Analysis) IsEmpty() bool {
	return a.Summary == "" && len(a.RequiredSkills) == 0 && len(a.Technologies) == 0
}

// ToMap 转为可嵌入 RawData 的字典。
func (a Analysis) ToMap() map[string]any {
	m := map[string]any{}
	data, err := json.Marshal(a)
	if err != nil {
		return m
	}
	_ = json.Unmarshal(data, &m)
	return m
}

// Analyzer 负责职位结构化提取与画像匹配打分。
type Analyzer struct {
	llm    LLMClient
	logger *zap.Logger
}

// New 创建 Analyzer。
func New(llm LLMClient, logger *zap.Logger) *Analyzer {
	return &Analyzer{llm: llm, logger: logger}
}

// Analyze 提取单个职位的结构化信息。
// 模型调用失败或响应不可解析时返回空 Analysis，不向上抛错。
func (a *Analyzer) Analyze(ctx context.Context, job model.Job) Analysis {
	if strings.TrimSpace(job.Description) == "" {
		a.logger.Warn("no description for job", zap.String("title", job.Title))
		return Analysis{}
	}

	prompt := buildPrompt(job.Title, job.Description)
	text, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		a.logger.Error("llm complete failed", zap.String("title", job.Title), zap.Error(err))
		return Analysis{}
	}

	analysis, err := parseResponse(text)
	if err != nil {
		a.logger.Error("parse llm response failed", zap.Error(err))
		a.logger.Debug("raw llm response", zap.String("response", text))
		return Analysis{}
	}
	return analysis
}

// BatchAnalyze 顺序分析前 maxJobs 个职位并就地回填结果，
// 超出上限的职位原样保留。完整提取嵌入 raw_data["ai_analysis"] 供审计。
func (a *Analyzer) BatchAnalyze(ctx context.Context, jobs []model.Job, maxJobs int) []model.Job {
	if maxJobs <= 0 {
		maxJobs = DefaultMaxJobs
	}
	limit := min(len(jobs), maxJobs)

	for i := 0; i < limit; i++ {
		a.logger.Info("analyzing job",
			zap.Int("index", i+1),
			zap.Int("total", limit),
			zap.String("title", jobs[i].Title))

		analysis := a.Analyze(ctx, jobs[i])
		jobs[i].AIExtractedSkills = datatypes.NewJSONSlice(analysis.RequiredSkills)
		jobs[i].AISummary = analysis.Summary
		if jobs[i].RawData == nil {
			jobs[i].RawData = datatypes.JSONMap{}
		}
		jobs[i].RawData["ai_analysis"] = analysis.ToMap()
	}
	return jobs
}

// MatchScore 计算职位与求职者画像的匹配度，范围 [0,100]。
// 技能占 70%：双方技能先做大小写不敏感去重，再取
// 职位 required_skills ∪ technologies 与画像技能的交集比例；
// 经验占 30%：画像年限满足要求时为 1.0，否则按比例折算。
func (a *Analyzer) MatchScore(analysis Analysis, profile model.UserProfile) float64 {
	if len(profile.Skills) == 0 {
		return 0
	}

	jobSkills := map[string]struct{}{}
	for _, skill := range analysis.RequiredSkills {
		jobSkills[strings.ToLower(strings.TrimSpace(skill))] = struct{}{}
	}
	for _, tech := range analysis.Technologies {
		jobSkills[strings.ToLower(strings.TrimSpace(tech))] = struct{}{}
	}
	delete(jobSkills, "")
	if len(jobSkills) == 0 {
		return 0
	}

	profileSkills := map[string]struct{}{}
	for _, skill := range profile.Skills {
		profileSkills[strings.ToLower(strings.TrimSpace(skill))] = struct{}{}
	}
	delete(profileSkills, "")

	matched := 0
	for skill := range profileSkills {
		if _, ok := jobSkills[skill]; ok {
			matched++
		}
	}
	skillRatio := float64(matched) / float64(len(jobSkills))

	experienceFactor := 1.0
	if analysis.ExperienceYears > 0 && profile.ExperienceYears < analysis.ExperienceYears {
		experienceFactor = float64(profile.ExperienceYears) / float64(analysis.ExperienceYears)
	}

	score := 100 * (0.7*skillRatio + 0.3*experienceFactor)
	return math.Round(score*100) / 100
}

const promptTemplate = `Analyze the following job posting and extract structured information.

Job Title: %s
Job Description: %s

Extract and return a JSON object with the following fields:
{
    "required_skills": ["list", "of", "skills"],
    "preferred_skills": ["list", "of", "preferred", "skills"],
    "experience_years": <number or null>,
    "education_level": "Bachelor's/Master's/PhD/etc or null",
    "remote_friendly": true/false,
    "key_responsibilities": ["list", "of", "main", "responsibilities"],
    "technologies": ["list", "of", "specific", "technologies"],
    "soft_skills": ["list", "of", "soft", "skills"],
    "salary_indicators": "any salary information mentioned",
    "summary": "brief 2-3 sentence summary of the role"
}

Return ONLY the JSON object, no other text.`

func buildPrompt(title, description string) string {
	return fmt.Sprintf(promptTemplate, title, description)
}

// parseResponse 解析模型文本响应：
// 先尝试整体 JSON，失败后提取 markdown 代码块（含可选语言标记）再解析。
func parseResponse(text string) (Analysis, error) {
	text = strings.TrimSpace(text)

	var analysis Analysis
	if err := json.Unmarshal([]byte(text), &analysis); err == nil {
		return analysis, nil
	}

	if block, ok := extractFenced(text); ok {
		if err := json.Unmarshal([]byte(block), &analysis); err == nil {
			return analysis, nil
		}
	}
	return Analysis{}, fmt.Errorf("no parsable JSON in llm response")
}

// extractFenced 取首个 ``` 围栏内的内容，跳过 "json" 之类的语言标记行。
func extractFenced(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", false
	}
	rest := text[start+3:]

	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		lang := strings.TrimSpace(rest[:nl])
		if lang == "" || strings.EqualFold(lang, "json") {
			rest = rest[nl+1:]
		}
	}

	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}
