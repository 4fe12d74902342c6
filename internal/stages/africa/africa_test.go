package africa

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/africagold/briefing/internal/config"
	"github.com/africagold/briefing/internal/feeds"
	"github.com/africagold/briefing/internal/logger"
)

func newStage(t *testing.T, date time.Time) *Stage {
	t.Helper()
	log, err := logger.New(logger.Options{Level: "error"})
	require.NoError(t, err)
	return New(config.FeedsConfig{MaxHeadlines: 6}, feeds.NewNewsClient(log), date, 0)
}

func TestRunReturnsMinerDataset(t *testing.T) {
	t.Parallel()

	payload, err := newStage(t, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)).Run(context.Background(), nil)
	require.NoError(t, err)

	data := payload.(*Data)
	require.NotEmpty(t, data.Miners)
	for _, miner := range data.Miners {
		require.NotEmpty(t, miner.Name)
		require.Greater(t, miner.AISCUSD, 0.0)
		require.Greater(t, miner.ProductionKoz, 0.0)
	}
}

func TestSeasonalSignalsFollowCalendar(t *testing.T) {
	t.Parallel()

	august := activeSignals(time.August)
	require.Len(t, august, 1)
	require.Contains(t, august[0].Signal, "rainy season")

	december := activeSignals(time.December)
	require.Len(t, december, 2)

	may := activeSignals(time.May)
	require.Empty(t, may)
}
