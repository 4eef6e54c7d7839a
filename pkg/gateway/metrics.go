package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesDecodedCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "enocean_gateway",
		Name:      "frames_decoded_count",
		Help:      "Frames read from the transceiver, by packet type",
	}, []string{"type"})
	frameCRCErrorCount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "enocean_gateway",
		Name:      "frame_crc_errors_count",
		Help:      "Frames with a failed data CRC check",
	})
	telegramsQueuedCount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "enocean_gateway",
		Name:      "telegrams_queued_count",
		Help:      "Radio telegrams queued for delivery to the consumer",
	})
	commandsSentCount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "enocean_gateway",
		Name:      "commands_sent_count",
		Help:      "Command frames written to the transceiver",
	})
	responsesMatchedCount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "enocean_gateway",
		Name:      "responses_matched_count",
		Help:      "Responses correlated with an in-flight command",
	})
)
