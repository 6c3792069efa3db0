package exchange

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/raykavin/bosfvg/pkg/core"
	"github.com/samber/lo"
	"github.com/xhit/go-str2duration/v2"
)

var defaultHeaderMap = map[string]int{
	"time": 0, "open": 1, "close": 2, "low": 3, "high": 4, "volume": 5,
}

// unix timestamps above this value are read as milliseconds
const millisecondThreshold = 1e11

// PairFeed representa os dados de um par no feed de dados
type PairFeed struct {
	Pair      string
	File      string
	Timeframe string
}

// CSVFeed representa um feed de dados de CSV
type CSVFeed struct {
	Feeds               map[string]PairFeed
	CandlePairTimeFrame map[string][]core.Candle
}

// NewCSVFeed cria um novo feed de dados de CSV e faz o resample para o timeframe alvo.
// An empty target keeps every feed in its own timeframe.
func NewCSVFeed(targetTimeframe string, feeds ...PairFeed) (*CSVFeed, error) {
	csvFeed := &CSVFeed{
		Feeds:               make(map[string]PairFeed),
		CandlePairTimeFrame: make(map[string][]core.Candle),
	}

	for _, feed := range feeds {
		csvFeed.Feeds[feed.Pair] = feed

		candles, err := ReadCandles(feed.File, feed.Pair)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", feed.File, err)
		}

		csvFeed.CandlePairTimeFrame[csvFeed.feedTimeframeKey(feed.Pair, feed.Timeframe)] = candles

		if targetTimeframe == "" || targetTimeframe == feed.Timeframe {
			continue
		}

		resampled, err := Resample(candles, feed.Timeframe, targetTimeframe)
		if err != nil {
			return nil, err
		}
		csvFeed.CandlePairTimeFrame[csvFeed.feedTimeframeKey(feed.Pair, targetTimeframe)] = resampled
	}

	return csvFeed, nil
}

// ReadCandles lê e processa o arquivo CSV para criar candles
func ReadCandles(file, pair string) ([]core.Candle, error) {
	csvFile, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer csvFile.Close()

	csvLines, err := csv.NewReader(csvFile).ReadAll()
	if err != nil {
		return nil, err
	}

	if len(csvLines) == 0 {
		return nil, core.ErrNoData
	}

	headerMap, additionalHeaders, hasCustomHeaders := parseHeaders(csvLines[0])
	if hasCustomHeaders {
		csvLines = csvLines[1:]
	}

	for _, column := range []string{"time", "open", "close", "low", "high"} {
		if _, ok := headerMap[column]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", core.ErrData, column)
		}
	}

	candles := make([]core.Candle, 0, len(csvLines))
	for i, line := range csvLines {
		candle, err := parseCandleFromLine(line, headerMap, additionalHeaders, pair)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", core.ErrData, i+1, err)
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

// parseHeaders analisa os cabeçalhos do CSV e retorna um mapa de índices
func parseHeaders(headers []string) (headerMap map[string]int, additional []string, hasCustomHeaders bool) {
	// Verifica se o primeiro elemento é um timestamp (não é cabeçalho)
	if _, err := parseTime(headers[0]); err == nil {
		return defaultHeaderMap, nil, false
	}

	headerMap = make(map[string]int)
	for index, header := range headers {
		header = strings.ToLower(strings.TrimSpace(header))
		headerMap[header] = index

		// Verifica se é um cabeçalho adicional que não está nos padrões
		if _, exists := defaultHeaderMap[header]; !exists {
			additional = append(additional, header)
		}
	}

	return headerMap, additional, true
}

// parseTime accepts unix seconds, unix milliseconds or RFC3339
func parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)

	if ts, err := strconv.ParseInt(value, 10, 64); err == nil {
		if ts > millisecondThreshold {
			return time.UnixMilli(ts).UTC(), nil
		}
		return time.Unix(ts, 0).UTC(), nil
	}

	return time.Parse(time.RFC3339, value)
}

// parseCandleFromLine analisa uma linha do CSV e cria um candle
func parseCandleFromLine(line []string, headerMap map[string]int, additionalHeaders []string, pair string) (core.Candle, error) {
	timestamp, err := parseTime(line[headerMap["time"]])
	if err != nil {
		return core.Candle{}, err
	}

	candle := core.Candle{
		Time:     timestamp,
		Pair:     pair,
		Complete: true,
	}

	if candle.Open, err = strconv.ParseFloat(line[headerMap["open"]], 64); err != nil {
		return core.Candle{}, err
	}

	if candle.Close, err = strconv.ParseFloat(line[headerMap["close"]], 64); err != nil {
		return core.Candle{}, err
	}

	if candle.Low, err = strconv.ParseFloat(line[headerMap["low"]], 64); err != nil {
		return core.Candle{}, err
	}

	if candle.High, err = strconv.ParseFloat(line[headerMap["high"]], 64); err != nil {
		return core.Candle{}, err
	}

	if index, ok := headerMap["volume"]; ok {
		if candle.Volume, err = strconv.ParseFloat(line[index], 64); err != nil {
			return core.Candle{}, err
		}
	}

	// Processa metadados adicionais se existirem
	if len(additionalHeaders) > 0 {
		candle.Metadata = make(map[string]float64, len(additionalHeaders))
		for _, header := range additionalHeaders {
			value, err := strconv.ParseFloat(line[headerMap[header]], 64)
			if err != nil {
				return core.Candle{}, fmt.Errorf("column %s: %w", header, err)
			}
			candle.Metadata[header] = value
		}
	}

	return candle, nil
}

// feedTimeframeKey gera uma chave única para cada par e timeframe
func (c CSVFeed) feedTimeframeKey(pair, timeframe string) string {
	return fmt.Sprintf("%s--%s", pair, timeframe)
}

// Candles retorna todos os candles de um par no timeframe informado
func (c CSVFeed) Candles(pair, timeframe string) ([]core.Candle, error) {
	candles, ok := c.CandlePairTimeFrame[c.feedTimeframeKey(pair, timeframe)]
	if !ok || len(candles) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrInsufficientData, pair, timeframe)
	}
	return candles, nil
}

// Limit limita os candles a um período de tempo específico
func (c *CSVFeed) Limit(duration time.Duration) *CSVFeed {
	for key, candles := range c.CandlePairTimeFrame {
		if len(candles) == 0 {
			continue
		}

		start := candles[len(candles)-1].Time.Add(-duration)
		c.CandlePairTimeFrame[key] = lo.Filter(candles, func(candle core.Candle, _ int) bool {
			return candle.Time.After(start)
		})
	}
	return c
}

// CandlesByPeriod retorna os candles dentro de um período específico
func (c CSVFeed) CandlesByPeriod(_ context.Context, pair, timeframe string, start, end time.Time) ([]core.Candle, error) {
	key := c.feedTimeframeKey(pair, timeframe)
	result := make([]core.Candle, 0)

	for _, candle := range c.CandlePairTimeFrame[key] {
		if candle.Time.Before(start) || candle.Time.After(end) {
			continue
		}
		result = append(result, candle)
	}

	return result, nil
}

// isTimeOnPeriodBoundary verifica se um timestamp está na fronteira de um período
func isTimeOnPeriodBoundary(t time.Time, targetTimeframe string) (bool, error) {
	switch targetTimeframe {
	case "1m":
		return t.Second() == 0, nil
	case "5m":
		return t.Minute()%5 == 0 && t.Second() == 0, nil
	case "10m":
		return t.Minute()%10 == 0 && t.Second() == 0, nil
	case "15m":
		return t.Minute()%15 == 0 && t.Second() == 0, nil
	case "30m":
		return t.Minute()%30 == 0 && t.Second() == 0, nil
	case "1h":
		return t.Minute() == 0 && t.Second() == 0, nil
	case "2h":
		return t.Hour()%2 == 0 && t.Minute() == 0 && t.Second() == 0, nil
	case "4h":
		return t.Hour()%4 == 0 && t.Minute() == 0 && t.Second() == 0, nil
	case "12h":
		return t.Hour()%12 == 0 && t.Minute() == 0 && t.Second() == 0, nil
	case "1d":
		return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0, nil
	default:
		return false, fmt.Errorf("%w: %s", ErrInvalidTimeframe, targetTimeframe)
	}
}

// Resample agrupa candles de um timeframe em candles de um timeframe maior.
// Candles before the first period boundary and an unfinished last period are
// dropped, so every output candle is complete.
func Resample(candles []core.Candle, sourceTimeframe, targetTimeframe string) ([]core.Candle, error) {
	if sourceTimeframe == targetTimeframe {
		return candles, nil
	}

	sourceDuration, err := str2duration.ParseDuration(sourceTimeframe)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimeframe, sourceTimeframe)
	}
	targetDuration, err := str2duration.ParseDuration(targetTimeframe)
	if err != nil || targetDuration <= sourceDuration || targetDuration%sourceDuration != 0 {
		return nil, fmt.Errorf("%w: cannot resample %s into %s", ErrInvalidTimeframe, sourceTimeframe, targetTimeframe)
	}

	targetCandles := make([]core.Candle, 0, len(candles)/int(targetDuration/sourceDuration)+1)

	var current core.Candle
	inPeriod := false

	for _, candle := range candles {
		isFirst, err := isTimeOnPeriodBoundary(candle.Time.UTC(), targetTimeframe)
		if err != nil {
			return nil, err
		}
		isLast, err := isTimeOnPeriodBoundary(candle.Time.Add(sourceDuration).UTC(), targetTimeframe)
		if err != nil {
			return nil, err
		}

		switch {
		case isFirst:
			current = candle
			current.Metadata = nil
			current.Complete = false
			inPeriod = true
		case !inPeriod:
			// Aguarda o início de um período
			continue
		default:
			current.High = math.Max(current.High, candle.High)
			current.Low = math.Min(current.Low, candle.Low)
			current.Close = candle.Close
			current.Volume += candle.Volume
		}

		if isLast {
			current.Complete = true
			targetCandles = append(targetCandles, current)
			inPeriod = false
		}
	}

	return targetCandles, nil
}
