/*
Package webhook turns inbound provider notifications into reconciled store
state.

Processing of one notification:

	event, err := webhook.Normalize(webhook.Input{Body: body, ContentType: ct, Query: query})
	err = svc.Reconcile(ctx, event)

Reconcile journals the event before any external call, fetches the
authoritative resource, merges it into the payments table, writes the
dependent payload and antifraud rows, and finalizes the journal row. The
journal's payment_id is only set once the payments row exists.

Outcomes are recorded in webhook_events.process_status:
  - processed: the resource was fetched and written
  - processed_no_id: the notification carried no resource id
  - api_unavailable: the provider read API could not be reached
  - failed: anything else, with a truncated error message

Reconcile returns an error only when the initial journal insert fails.

Payload merge precedence is JSON body, then form body, then query string;
later sources overwrite earlier keys.
*/
package webhook
