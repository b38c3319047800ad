package resolution

import (
	"testing"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolloverSweepRequest_Validate(t *testing.T) {
	const orgID = "5f0c7a52-1d1e-4c1e-9f3b-2f4c0c1a0001"

	tests := []struct {
		name         string
		req          RolloverSweepRequest
		wantErr      bool
		wantLookback int
	}{
		{"zero lookback is left for the service", RolloverSweepRequest{OrgID: orgID}, false, 0},
		{"explicit lookback", RolloverSweepRequest{OrgID: orgID, LookbackDays: 14}, false, 14},
		{"upper bound", RolloverSweepRequest{OrgID: orgID, LookbackDays: MaxLookbackDays}, false, MaxLookbackDays},
		{"too large", RolloverSweepRequest{OrgID: orgID, LookbackDays: MaxLookbackDays + 1}, true, 0},
		{"negative", RolloverSweepRequest{OrgID: orgID, LookbackDays: -3}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				var errs validator.ValidationErrors
				require.ErrorAs(t, err, &errs)
				assert.Contains(t, errs.ToMap(), "lookback_days")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLookback, tt.req.LookbackDays)
		})
	}
}
