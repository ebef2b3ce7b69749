package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"planmate/config"
	"planmate/models"
	"planmate/utils"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const geminiModelName = "models/gemini-1.5-pro"

// GeminiNLU implements every NLU capability on top of the Gemini API.
type GeminiNLU struct {
	client *genai.Client
}

// NewGeminiNLU connects to the Gemini API with the configured key.
func NewGeminiNLU(ctx context.Context) (*GeminiNLU, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.AppConfig.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiNLU{client: client}, nil
}

// Close releases the underlying API connection.
func (g *GeminiNLU) Close() error {
	return g.client.Close()
}

func (g *GeminiNLU) generate(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(geminiModelName)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini request failed: %w", err)
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	out := sb.String()
	if out == "" {
		return "", fmt.Errorf("Gemini returned an empty response")
	}
	return out, nil
}

const classifyPrompt = `Ты классификатор сообщений ассистента по планированию дня.
Определи тип сообщения пользователя. Ответь ровно одним словом:
PLAN_REQUEST — пользователь просит составить (или составить заново) план на день;
FEEDBACK_ON_PLAN — пользователь комментирует или просит изменить уже показанный план;
CHITCHAT — всё остальное.

План уже показан пользователю: %t
Сообщение: %q`

// Classify implements Classifier.
func (g *GeminiNLU) Classify(ctx context.Context, message string, hasPlan bool) (models.ClassifiedIntent, error) {
	raw, err := g.generate(ctx, fmt.Sprintf(classifyPrompt, hasPlan, message))
	if err != nil {
		return models.ClassifiedIntent{}, err
	}
	label := strings.ToUpper(strings.TrimSpace(strings.Split(raw, "\n")[0]))
	switch {
	case strings.Contains(label, string(models.IntentPlanRequest)):
		return models.ClassifiedIntent{Intent: models.IntentPlanRequest, Reasoning: raw}, nil
	case strings.Contains(label, string(models.IntentFeedback)):
		return models.ClassifiedIntent{Intent: models.IntentFeedback, Reasoning: raw}, nil
	}
	return models.ClassifiedIntent{Intent: models.IntentChitchat, Reasoning: raw}, nil
}

const extractPrompt = `Извлеки критерии поиска из запроса пользователя на план дня.
Ответь только JSON без пояснений:
{
  "city": "город или пустая строка",
  "date": "описание даты словами пользователя или пустая строка",
  "time": "описание времени или пустая строка",
  "budget": число или null,
  "person_count": число или null,
  "activities": [{"type": "MOVIE|CONCERT|STAND_UP|PERFORMANCE|MUSEUM_EXHIBITION|PARK|RESTAURANT", "query": "что именно ищем"}]
}

Запрос: %q`

type extractedCriteria struct {
	City        string `json:"city"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Budget      *int   `json:"budget"`
	PersonCount *int   `json:"person_count"`
	Activities  []struct {
		Type  string `json:"type"`
		Query string `json:"query"`
	} `json:"activities"`
}

// ExtractCriteria implements Extractor.
func (g *GeminiNLU) ExtractCriteria(ctx context.Context, message string) (*models.SearchCriteria, error) {
	raw, err := g.generate(ctx, fmt.Sprintf(extractPrompt, message))
	if err != nil {
		return nil, err
	}
	var dto extractedCriteria
	if err := json.Unmarshal([]byte(StripFences(raw)), &dto); err != nil {
		utils.GetLogger().Warn("criteria extraction returned malformed JSON",
			zap.String("raw", raw), zap.Error(err))
		return nil, fmt.Errorf("failed to parse extracted criteria: %w", err)
	}

	criteria := &models.SearchCriteria{
		City:            strings.TrimSpace(dto.City),
		DateDescription: strings.TrimSpace(dto.Date),
		TimeDescription: strings.TrimSpace(dto.Time),
		Budget:          dto.Budget,
	}
	if dto.PersonCount != nil {
		criteria.PersonCount = *dto.PersonCount
	}
	for _, a := range dto.Activities {
		t := models.ParseActivityType(a.Type)
		if t == models.ActivityUnknown {
			continue
		}
		criteria.Activities = append(criteria.Activities, models.ActivitySlot{Type: t, Query: a.Query})
	}
	return criteria, nil
}

const feedbackPrompt = `Пользователю показан план дня:
%s

Пользователь ответил: %q

Разбери ответ на команды изменения плана. Выведи блок:
<commands>
command_type;target;attribute;operator;value_str;value_num_unit
</commands>

Где command_type: modify|delete|add|update_criteria;
target: MOVIE|CONCERT|STAND_UP|PERFORMANCE|MUSEUM_EXHIBITION|PARK|RESTAURANT|plan;
attribute: start_time|price|rating|name|date|city или пусто;
operator: >|<|==|!=|MIN|MAX или пусто;
value_str: явное значение словами или пусто;
value_num_unit: число с единицей измерения ("1 час", "30 минут", "500") или пусто.
Одна команда на строку. Если команд нет, оставь блок пустым.`

// ParseFeedback implements FeedbackParser.
func (g *GeminiNLU) ParseFeedback(ctx context.Context, message string, plan *models.Itinerary) ([]models.SemanticIntent, error) {
	raw, err := g.generate(ctx, fmt.Sprintf(feedbackPrompt, FormatPlan(plan), message))
	if err != nil {
		return nil, err
	}
	return ParseCommandLines(raw), nil
}

const datePrompt = `Сегодня %s (%s). Определи календарную дату из описания: %q.
Ответь только датой в формате YYYY-MM-DD.`

var russianWeekdays = [...]string{"воскресенье", "понедельник", "вторник", "среда", "четверг", "пятница", "суббота"}

// ResolveDate implements DateParser.
func (g *GeminiNLU) ResolveDate(ctx context.Context, description string, now time.Time) (time.Time, error) {
	if description == "" {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	}
	prompt := fmt.Sprintf(datePrompt, now.Format("2006-01-02"), russianWeekdays[now.Weekday()], description)
	raw, err := g.generate(ctx, prompt)
	if err != nil {
		return time.Time{}, err
	}
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(StripFences(raw)))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse resolved date %q: %w", raw, err)
	}
	return parsed, nil
}

const phrasePlanPrompt = `Ты дружелюбный ассистент по планированию дня. Перескажи
готовый план пользователю: коротко, по пунктам, со временем и местами, на русском.
Не выдумывай деталей, которых нет в плане.

План:
%s`

// PhrasePlan implements Phraser. A phrasing failure falls back to the
// deterministic plan summary so the user always sees the plan.
func (g *GeminiNLU) PhrasePlan(ctx context.Context, plan *models.Itinerary, criteria *models.SearchCriteria) (string, error) {
	summary := FormatPlan(plan)
	raw, err := g.generate(ctx, fmt.Sprintf(phrasePlanPrompt, summary))
	if err != nil {
		utils.GetLogger().Warn("plan phrasing failed, using plain summary", zap.Error(err))
		return summary, nil
	}
	return strings.TrimSpace(raw), nil
}

const phraseFailurePrompt = `Ты дружелюбный ассистент по планированию дня. План
собрать не получилось. Причина: %q. Сообщи об этом пользователю одним-двумя
предложениями и предложи, что можно поменять.`

// PhraseFailure implements Phraser.
func (g *GeminiNLU) PhraseFailure(ctx context.Context, reason string) (string, error) {
	raw, err := g.generate(ctx, fmt.Sprintf(phraseFailurePrompt, reason))
	if err != nil {
		return fmt.Sprintf("Не получилось собрать план: %s. Попробуйте изменить запрос.", reason), nil
	}
	return strings.TrimSpace(raw), nil
}

const chitchatPrompt = `Ты ассистент по планированию дня: кино, концерты, рестораны,
парки. Ответь коротко и дружелюбно, при случае напомни, что умеешь составлять
план на день. Сообщение: %q`

// Chat implements Phraser.
func (g *GeminiNLU) Chat(ctx context.Context, message string) (string, error) {
	raw, err := g.generate(ctx, fmt.Sprintf(chitchatPrompt, message))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// FormatPlan renders an itinerary as a plain numbered list.
func FormatPlan(plan *models.Itinerary) string {
	if plan == nil || len(plan.Stops) == 0 {
		return "план пуст"
	}
	var sb strings.Builder
	for i, stop := range plan.Stops {
		fmt.Fprintf(&sb, "%d. [%s] %s", i+1, stop.Candidate.Type, stop.Candidate.Name())
		if venue := stop.Candidate.VenueName(); venue != "" && venue != stop.Candidate.Name() {
			fmt.Fprintf(&sb, " — %s", venue)
		}
		fmt.Fprintf(&sb, ", %s–%s", stop.StartTime.Format("15:04"), stop.EndTime.Format("15:04"))
		if price, ok := stop.Candidate.Price(); ok {
			fmt.Fprintf(&sb, ", от %.0f ₽", price)
		}
		if stop.Travel != nil && stop.Travel.DurationSeconds > 0 {
			fmt.Fprintf(&sb, " (дорога ~%d мин)", (stop.Travel.DurationSeconds+59)/60)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Всего в пути: ~%d мин", (plan.TotalTravelSeconds+59)/60)
	return sb.String()
}
