package service

import "fmt"

func shareNotificationTemplate(ownerEmail, itemName, itemKind, sharedURL, appName string) (string, string) {
	subject := fmt.Sprintf("%s shared a %s with you on %s", ownerEmail, itemKind, appName)
	body := fmt.Sprintf(`Hi,

%s shared the %s "%s" with you.

You can find it under "Shared With Me" in your portfolios:
%s

Best,
The %s Team`, ownerEmail, itemKind, itemName, sharedURL, appName)

	return subject, body
}
