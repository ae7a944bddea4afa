/*
Package ddns keeps a single DNS "A" record pointed at the current public IPv4 address.

Usage will always start with [ddns.New],
which resolves the zone and record to manage and returns a [Client].
New requires the record name and a [Provider] option such as [UsingCloudflare].
Additional client configuration options are listed in the docs for New.

[Client.RunDDNS] runs a single check-and-update tick.
[Client.Start] runs ticks in the background at a fixed interval until [Client.Stop] is called.
*/
package ddns
