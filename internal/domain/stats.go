package domain

// Stage identifies the step at which a file stopped being processed.
type Stage string

const (
	StageBackup Stage = "backup"
	StageDecode Stage = "decode"
	StageEncode Stage = "encode"
	StageWrite  Stage = "write"
	StageDone   Stage = "done"
)

type FileResult struct {
	File         ImageFile
	BackupPath   string
	OutputPath   string
	Format       OutputFormat
	Before       Dimensions
	After        Dimensions
	ModeBefore   ColorMode
	Orientation  int
	BackedUp     bool
	Reoriented   bool
	Converted    bool
	Resized      bool
	OriginalSize int64
	ReducedSize  int64
	Stage        Stage
	Err          error
}

func (r FileResult) OK() bool {
	return r.Err == nil
}

// ReductionPercent is negative when the reduced copy grew.
func (r FileResult) ReductionPercent() float64 {
	return reduction(r.OriginalSize, r.ReducedSize)
}

type RunStats struct {
	Processed     int
	Skipped       int
	OriginalBytes int64
	ReducedBytes  int64
}

// Record folds one file result into the running totals.
func (s *RunStats) Record(result FileResult) {
	if !result.OK() {
		s.Skipped++
		return
	}
	s.Processed++
	s.OriginalBytes += result.OriginalSize
	s.ReducedBytes += result.ReducedSize
}

func (s RunStats) ReductionPercent() float64 {
	return reduction(s.OriginalBytes, s.ReducedBytes)
}

func reduction(original, reduced int64) float64 {
	if original <= 0 {
		return 0
	}
	return float64(original-reduced) / float64(original) * 100
}
