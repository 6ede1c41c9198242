package core

import "time"

// TrainingMode selects the batch trainer's weighting and model family.
type TrainingMode string

const (
	// ModeFast trains a regularized linear model with uniform sample weights.
	ModeFast TrainingMode = "fast"
	// ModeRobust trains a boosted tree ensemble with exponential time-decay weights.
	ModeRobust TrainingMode = "robust"
)

// Valid reports whether the mode is a known training mode.
func (m TrainingMode) Valid() bool {
	return m == ModeFast || m == ModeRobust
}

// FeatureRecord is a validated, typed feature set frozen at publish time.
// Once snapshotted its values never change, even if recomputation would
// differ: it represents what was knowable when the article was published.
type FeatureRecord struct {
	Numeric     map[string]float64
	Categorical map[string]string
}

// Clone returns a deep copy so stored records cannot be mutated by callers.
func (r FeatureRecord) Clone() FeatureRecord {
	out := FeatureRecord{
		Numeric:     make(map[string]float64, len(r.Numeric)),
		Categorical: make(map[string]string, len(r.Categorical)),
	}
	for k, v := range r.Numeric {
		out.Numeric[k] = v
	}
	for k, v := range r.Categorical {
		out.Categorical[k] = v
	}
	return out
}

// FeatureSnapshot binds a frozen feature record to an article identity.
type FeatureSnapshot struct {
	ArticleID   string
	Symbol      string
	PublishedAt time.Time
	Features    FeatureRecord
}

// Label is the realized outcome for a snapshotted article. Written exactly
// once per article by the labeling job.
type Label struct {
	ArticleID      string
	Outcome        int // 1 if realized return exceeded the threshold
	RealizedReturn float64
	Threshold      float64
	EntryDate      time.Time
	CreatedAt      time.Time
}

// DailyBar is one daily OHLCV row of price history.
type DailyBar struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// DateRange is a closed [From, To] span of trading dates.
type DateRange struct {
	From time.Time
	To   time.Time
}

// String renders the range in the canonical YYYY-MM-DD form used for hashing.
func (d DateRange) String() string {
	return d.From.Format("2006-01-02") + ".." + d.To.Format("2006-01-02")
}

// EvalMetrics holds walk-forward validation metrics for a trained model.
type EvalMetrics struct {
	R2   float64 `json:"r2"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
}

// ModelMetadata is one Model Registry entry. Multiple entries may exist per
// ticker; activation for serving is outside this core.
type ModelMetadata struct {
	ID              string
	Ticker          string
	Mode            TrainingMode
	ConfigHash      string
	Metrics         EvalMetrics
	Observations    int
	TrainedAt       time.Time
	ArtifactPath    string
	Runtime         string
	Range           DateRange
	IndicatorConfig string
	ArchivePath     string
}

// OnlinePrediction is the online classifier's serving output.
type OnlinePrediction struct {
	Probability    float64
	ModelVersion   int64
	ConfidenceBand float64
}

// BatchPrediction is the batch model's serving output.
type BatchPrediction struct {
	Ticker             string
	Mode               TrainingMode
	PredictedNextClose float64
	CurrentClose       float64
	PredictedChangePct float64
	FeatureSnapshot    map[string]float64
	ModelID            string
}
