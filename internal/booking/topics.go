package booking

const (
	TopicOrderPlaced    = "lesson.order.placed"
	TopicSpacesAdjusted = "lesson.spaces.adjusted"
)

// Partition key = order_id (atau lesson id utk adjustment), supaya event yang
// berhubungan maintain urutan.
func PartitionKey(id string) []byte { return []byte(id) }
