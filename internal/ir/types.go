package ir

// Run is the record of one instance execution: a compiled plan, the Args it
// was constructed with and the ticks it consumed.
type Run struct {
	ID            string   `json:"id"`        // UUIDv7
	Module        string   `json:"module"`    // module name from `mod Name;`
	PlanHash      string   `json:"plan_hash"` // ir.PlanHash of the compiled plan
	Source        string   `json:"source"`    // program text, for replay
	Args          IRObject `json:"args"`
	Seq           int64    `json:"seq"` // logical creation order, never wall-clock
	EngineVersion string   `json:"engine_version"`
	IRVersion     string   `json:"ir_version"`
}

// Tick is the record of one evaluated tick.
type Tick struct {
	RunID     string   `json:"run_id"`
	Seq       int64    `json:"seq"` // 1-based tick number
	Inputs    IRObject `json:"inputs"`
	Outputs   IRObject `json:"outputs"`
	Registers IRObject `json:"registers"` // register storage after commit
	Hash      string   `json:"hash"`      // ir.TickHash chained on the previous tick
}
