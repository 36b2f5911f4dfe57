package meterdb

import "context"

// FeederBalanceTables are the tables FeederEnergyBalanceQuery reads from or writes to.
var FeederBalanceTables = []string{
	TableGenerationOutput,
	TableMeterUsage,
	TableMeterScaleMap,
	TableMeterFeederMap,
	TablePlantFeederMap,
	TableTopologyEvents,
	TableMeterEvents,
	TableFeederEnergyBalance,
}

// RecomputeFeederEnergyBalance rebuilds feeder_energy_balance from scratch and returns
// the number of rows the store reports as inserted.
//
// Missing tables are created first. The mapping and event tables are populated
// elsewhere; an empty mapping yields an empty balance.
func (c *Client) RecomputeFeederEnergyBalance(ctx context.Context, threshold float64) (uint64, error) {
	for _, name := range FeederBalanceTables {
		if err := c.Table(name).Create(ctx); err != nil {
			return 0, err
		}
	}
	if err := c.Table(TableFeederEnergyBalance).Truncate(ctx); err != nil {
		return 0, err
	}
	r, err := c.Statement(FeederEnergyBalanceQuery(threshold)).Execute(ctx)
	if err != nil {
		return 0, err
	}
	return r.TotalRows, nil
}
