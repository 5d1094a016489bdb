package config

type WorkerKeyStruct struct {
	RerankRetryQueue string
}

var WorkerKey = &WorkerKeyStruct{
	RerankRetryQueue: "rerank_retry_queue",
}
