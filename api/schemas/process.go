package schemas

// -- Process Output Schemas --

// ProcessOutput is the response of the incremental process-output endpoint.
// The client sends the offset of the first byte it has not seen yet plus a
// chunk size cap; the server answers with the chunk and the cursor to use on
// the next request. NextOffset never moves backwards for a given process.
type ProcessOutput struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	HostIP       string `json:"hostIp"`
	Port         string `json:"port"`
	Protocol     string `json:"protocol"`
	Command      string `json:"command"`
	Status       string `json:"status"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	OutputChunk  string `json:"output_chunk"`
	OutputLength int    `json:"output_length"`
	Offset       int    `json:"offset"`
	NextOffset   int    `json:"next_offset"`
	Completed    bool   `json:"completed"`
}
