package kafka

// TopicPrefix namespaces every topic written by this module.
const TopicPrefix = "storefront"

// Topic builds a topic name as "<prefix>.<domain>.<action>",
// e.g. Topic("order", "created") == "storefront.order.created".
func Topic(domain, action string) string {
	return TopicPrefix + "." + domain + "." + action
}
