package races

import "go.uber.org/zap"

type step string

const (
	stepUploadPhoto     step = "upload_photo"
	stepDeleteOldPhoto  step = "delete_old_photo"
	stepWriteRow        step = "write_row"
	stepDeleteRow       step = "delete_row"
	stepDispatchCleanup step = "dispatch_cleanup"
)

// saga tracks the completed steps of one workflow run so a failure can be
// logged together with the partial state it leaves behind.
type saga struct {
	op        string
	raceID    int64
	completed []step
	log       *zap.Logger
}

func (s *Service) begin(op string, raceID int64) *saga {
	return &saga{op: op, raceID: raceID, log: s.log}
}

func (sg *saga) done(st step) {
	sg.completed = append(sg.completed, st)
	sg.log.Debug("race step done",
		zap.String("op", sg.op),
		zap.Int64("race_id", sg.raceID),
		zap.String("step", string(st)),
	)
}

func (sg *saga) has(st step) bool {
	for _, c := range sg.completed {
		if c == st {
			return true
		}
	}
	return false
}

// fail logs the failed step. Failures that leave the photo store and the
// database out of step are logged at error level.
func (sg *saga) fail(st step, err error) {
	fields := []zap.Field{
		zap.String("op", sg.op),
		zap.Int64("race_id", sg.raceID),
		zap.String("failed_step", string(st)),
		zap.Strings("completed", stepNames(sg.completed)),
		zap.Error(err),
	}

	switch {
	case sg.op == "edit" && st == stepUploadPhoto && sg.has(stepDeleteOldPhoto):
		sg.log.Error("race edit left row pointing at deleted photo", fields...)
	case st == stepDeleteRow && sg.has(stepDispatchCleanup):
		sg.log.Error("race row kept after its photo cleanup was dispatched", fields...)
	case sg.has(stepUploadPhoto):
		sg.log.Error("race write failed after photo upload", fields...)
	default:
		sg.log.Warn("race step failed", fields...)
	}
}

func stepNames(steps []step) []string {
	out := make([]string, len(steps))
	for i, st := range steps {
		out[i] = string(st)
	}
	return out
}
