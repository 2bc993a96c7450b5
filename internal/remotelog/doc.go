// Package remotelog periodically uploads a summary of the hub's readings
// to an HTTP endpoint such as a spreadsheet web hook.
//
// Each upload is a single GET:
//
//	<endpoint>?action=log&temp=21.50&humidity=40.00&light=12.30&motion=0
//	          &relay1=1&relay2=0&relay3=0&relay4=0
//
// Uploads run on their own cron schedule, never on the sampling tick. Each
// is bounded by a timeout, an upload still in flight when the next is due
// causes that one to be skipped, and failures are logged and not retried.
package remotelog
