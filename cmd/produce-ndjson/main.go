package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	meterdb "github.com/scopedb/meterdb-sdk/go"
)

const usage = "usage: produce-ndjson meter-usage|generation-output [flags]"

// optionalString is a string flag that stays nil unless given.
type optionalString struct {
	value *string
}

func (o *optionalString) String() string {
	if o == nil || o.value == nil {
		return ""
	}
	return *o.value
}

func (o *optionalString) Set(s string) error {
	o.value = &s
	return nil
}

type commonFlags struct {
	start       string
	stepSeconds int
	count       int
	format      string
	validate    bool
	post        bool
	envFile     string
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.start, "start", meterdb.DefaultStart, "first reading instant, RFC 3339 with a Z suffix")
	fs.IntVar(&f.stepSeconds, "step-seconds", 900, "seconds between readings")
	fs.IntVar(&f.count, "count", 10, "number of readings")
	fs.StringVar(&f.format, "format", "ndjson", "output format: ndjson, ilp or arrow")
	fs.BoolVar(&f.validate, "validate", false, "reject readings the ingestion service would refuse")
	fs.BoolVar(&f.post, "post", false, "post the readings to the ingestion service instead of printing them")
	fs.StringVar(&f.envFile, "env-file", ".env", "env file read before the environment when posting")
}

func (f *commonFlags) times() (meterdb.TimeSpec, error) {
	start, err := meterdb.ParseTimestamp(f.start)
	if err != nil {
		return meterdb.TimeSpec{}, err
	}
	return meterdb.TimeSpec{
		Start: start,
		Step:  time.Duration(f.stepSeconds) * time.Second,
	}, nil
}

type reading interface {
	json.Marshaler
	meterdb.LineProtocolEncoder
}

// sink describes how one kind of reading is checked, batched and posted.
type sink[R reading] struct {
	metric   string
	validate func(R) error
	schema   *arrow.Schema
	batch    func([]R) arrow.Record
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("produce-ndjson: ")

	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	var common commonFlags
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	common.register(fs)

	switch args[0] {
	case "meter-usage":
		var premiseID optionalString
		meterID := fs.String("meter-id", "m-1", "meter id")
		fs.Var(&premiseID, "premise-id", "premise id, null when omitted")
		kwhBase := fs.Float64("kwh-base", 1.0, "kWh of the first reading")
		kwhStep := fs.Float64("kwh-step", 0.0, "kWh added per reading")
		if err := fs.Parse(args[1:]); err != nil {
			return ignoreHelp(err)
		}
		times, err := common.times()
		if err != nil {
			return err
		}
		records := meterdb.MeterUsageRecords(meterdb.MeterUsageParams{
			MeterID:   *meterID,
			PremiseID: premiseID.value,
			Count:     common.count,
			Times:     times,
			KWhBase:   *kwhBase,
			KWhStep:   *kwhStep,
		})
		return emit(ctx, &common, sink[meterdb.MeterUsage]{
			metric:   meterdb.MetricMeterUsage,
			validate: meterdb.ValidateMeterUsage,
			schema:   meterdb.MeterUsageSchema,
			batch:    meterdb.MeterUsageBatch,
		}, slices.Collect(records), stdout)

	case "generation-output":
		var unitID optionalString
		plantID := fs.String("plant-id", "plant-1", "plant id")
		fs.Var(&unitID, "unit-id", "unit id, omitted when not given")
		mwBase := fs.Float64("mw-base", 10.0, "MW of the first reading")
		mwStep := fs.Float64("mw-step", 0.0, "MW added per reading")
		if err := fs.Parse(args[1:]); err != nil {
			return ignoreHelp(err)
		}
		times, err := common.times()
		if err != nil {
			return err
		}
		records := meterdb.GenerationOutputRecords(meterdb.GenerationOutputParams{
			PlantID: *plantID,
			UnitID:  unitID.value,
			Count:   common.count,
			Times:   times,
			MWBase:  *mwBase,
			MWStep:  *mwStep,
		})
		return emit(ctx, &common, sink[meterdb.GenerationOutput]{
			metric:   meterdb.MetricGenerationOutput,
			validate: meterdb.ValidateGenerationOutput,
			schema:   meterdb.GenerationOutputSchema,
			batch:    meterdb.GenerationOutputBatch,
		}, slices.Collect(records), stdout)

	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func ignoreHelp(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

func emit[R reading](ctx context.Context, common *commonFlags, s sink[R], records []R, stdout io.Writer) error {
	if common.validate {
		for i, r := range records {
			if err := s.validate(r); err != nil {
				return fmt.Errorf("reading %d: %w", i, err)
			}
		}
	}

	if common.post {
		return post(ctx, common, s.metric, records, stdout)
	}

	switch common.format {
	case "ndjson":
		_, err := meterdb.WriteNDJSON(stdout, slices.Values(records))
		return err
	case "ilp":
		_, err := meterdb.WriteLineProtocol(stdout, slices.Values(records))
		return err
	case "arrow":
		if len(records) == 0 {
			return nil
		}
		batch := s.batch(records)
		defer batch.Release()
		payload, err := meterdb.EncodeArrowBatches(s.schema, []arrow.Record{batch})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(stdout, "%s\n", payload)
		return err
	default:
		return fmt.Errorf("unknown format %q", common.format)
	}
}

func post[R reading](ctx context.Context, common *commonFlags, metric string, records []R, stdout io.Writer) error {
	config, err := meterdb.LoadConfig(common.envFile)
	if err != nil {
		return err
	}
	if config.IngestEndpoint == "" {
		return fmt.Errorf("%s not set", meterdb.EnvIngestEndpoint)
	}

	client := meterdb.NewClient(config)
	defer client.Close()

	resp, err := meterdb.IngestRecords(ctx, client, metric, slices.Values(records))
	if err != nil {
		return err
	}
	log.Printf("posted %d readings to %s", len(records), metric)
	_, err = fmt.Fprintf(stdout, "{\"accepted\":%d,\"parse_errors\":%d}\n", resp.Accepted, resp.ParseErrors)
	return err
}
