package flow

// DefaultLinkHost is the host of shareable frame links.
const DefaultLinkHost = "www.figma.com"

// Link builds the shareable URL of a node. The node id is inserted verbatim.
func Link(host, fileKey, nodeID string) string {
	if host == "" {
		host = DefaultLinkHost
	}
	return "https://" + host + "/file/" + fileKey + "?node-id=" + nodeID
}
