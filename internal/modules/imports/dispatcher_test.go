package imports

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgekit/edgekit/internal/domain"
)

const webullCSV = `Symbol,Side,Status,Filled,Avg Price,Filled Time,Ref #
AAPL,Buy,Filled,10,@10.00,03/14/2024 09:31:00 EST,1
AAPL,Buy,Filled,5,@12.00,03/14/2024 09:45:00 EST,2
AAPL,Sell,Filled,12,@15.00,03/14/2024 10:30:00 EST,3
AAPL,Sell,Cancelled,100,@15.00,03/14/2024 10:31:00 EST,4
MSFT,Buy,Working,1,@400.00,03/14/2024 10:32:00 EST,5
`

func testDispatcher() *Dispatcher {
	return NewDispatcher(zerolog.New(nil).Level(zerolog.Disabled))
}

func TestProcess_WebullFIFOPipeline(t *testing.T) {
	res, err := testDispatcher().Process(domain.BrokerWebull, strings.NewReader(webullCSV))
	require.NoError(t, err)

	assert.Equal(t, domain.BrokerWebull, res.Broker)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 5, res.RowsTotal)
	assert.Equal(t, 3, res.RowsParsed)
	assert.Equal(t, 2, res.RowsDropped) // cancelled + non-filled status
	require.Len(t, res.Trades, 3)

	// Buys realize nothing; the sell matches 10@10 then 2@12 against 15.
	assert.True(t, res.Trades[0].RealizedPnL.IsZero())
	assert.True(t, res.Trades[1].RealizedPnL.IsZero())
	assert.True(t, res.Trades[2].RealizedPnL.Equal(decimal.NewFromInt(56)),
		"got %s", res.Trades[2].RealizedPnL)

	// Enriched columns are present on the output table.
	assert.True(t, res.Trades[2].CumulativePnL.Equal(decimal.NewFromInt(56)))
	assert.Equal(t, "Thursday", res.Trades[2].DayOfWeek)
	assert.True(t, res.Trades[2].IsWin)
}

func TestProcess_UnsupportedBrokerConsumesNothing(t *testing.T) {
	r := strings.NewReader(webullCSV)

	_, err := testDispatcher().Process(domain.Broker("Unsupported"), r)
	require.Error(t, err)

	var ube *domain.UnsupportedBrokerError
	require.True(t, errors.As(err, &ube))
	assert.Equal(t, webullCSV, mustReadAll(t, r), "the file must not be consumed")
}

func mustReadAll(t *testing.T, r *strings.Reader) string {
	t.Helper()
	buf := make([]byte, r.Len())
	_, err := r.Read(buf)
	require.NoError(t, err)
	return string(buf)
}

func TestProcess_SchemaError(t *testing.T) {
	csv := "Symbol,Side,Status,Filled\nAAPL,Buy,Filled,10\n"

	_, err := testDispatcher().Process(domain.BrokerWebull, strings.NewReader(csv))
	require.Error(t, err)

	var se *domain.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Columns, "Avg Price")
}

func TestProcess_EmptyAfterFilter(t *testing.T) {
	csv := `Symbol,Side,Status,Filled,Avg Price,Filled Time,Ref #
AAPL,Buy,Cancelled,10,10.00,03/14/2024 09:31:00 EST,1
AAPL,Sell,Pending,10,11.00,03/14/2024 09:32:00 EST,2
`
	_, err := testDispatcher().Process(domain.BrokerWebull, strings.NewReader(csv))
	require.Error(t, err)

	var ere *domain.EmptyResultError
	require.True(t, errors.As(err, &ere))
	assert.Equal(t, 2, ere.RowsTotal)
}

func TestProcess_MalformedRowsSoftDropped(t *testing.T) {
	csv := `Symbol,Side,Status,Filled,Avg Price,Filled Time,Ref #
AAPL,Buy,Filled,ten,10.00,03/14/2024 09:31:00 EST,1
AAPL,Buy,Filled,10,10.00,03/14/2024 09:31:00 EST,2
AAPL,Sell,Filled,10,12.00,not-a-time,3
`
	res, err := testDispatcher().Process(domain.BrokerWebull, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsParsed)
	assert.Equal(t, 2, res.RowsDropped)
	require.Len(t, res.Trades, 1)
}

func TestProcess_StatedPnLBypassesMatcher(t *testing.T) {
	csv := `Ticker,Action,Shares,Price,Date,Total Gain/Loss
NVDA,Sell,4,880.00,2024-03-14,120.40
NVDA,Sell,2,870.00,2024-03-15,-33.10
`
	res, err := testDispatcher().Process(domain.BrokerRobinhood, strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, res.Trades, 2)

	// Stated values pass through untouched even with no prior buys recorded.
	assert.True(t, res.Trades[0].RealizedPnL.Equal(decimal.RequireFromString("120.40")))
	assert.True(t, res.Trades[1].RealizedPnL.Equal(decimal.RequireFromString("-33.10")))
	assert.True(t, res.Trades[1].IsLoss)
}

func TestProcess_SortsOutOfOrderRowsBeforeMatching(t *testing.T) {
	csv := `Symbol,Side,Status,Filled,Avg Price,Filled Time,Ref #
AAPL,Sell,Filled,10,15.00,03/14/2024 10:30:00 EST,2
AAPL,Buy,Filled,10,10.00,03/14/2024 09:31:00 EST,1
`
	res, err := testDispatcher().Process(domain.BrokerWebull, strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, res.Trades, 2)

	// After sorting, the buy precedes the sell and the sell realizes 100.
	assert.Equal(t, domain.SideBuy, res.Trades[0].Side)
	assert.True(t, res.Trades[1].RealizedPnL.Equal(decimal.NewFromInt(100)))
}
