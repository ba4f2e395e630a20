package storage

// SnapshotDoc is the readable snapshot layout
type SnapshotDoc struct {
	Format  string              `json:"format"`
	Version int                 `json:"version"`
	Tables  map[string]TableDoc `json:"tables"`
}

type TableDoc struct {
	Columns []string `json:"columns"`
	Rows    []RowDoc `json:"rows"`
}

type RowDoc struct {
	ID   int               `json:"id"`
	Data map[string]string `json:"data"`
}
