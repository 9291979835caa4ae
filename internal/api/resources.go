package api

// Resource paths for the TransitNet API. Colon-prefixed segments are path
// parameters filled in with ApplyPathParams.
const (
	ResourceUserSelf              = "/users/self"
	ResourceUserInvites           = "/users/self/invites"
	ResourceUserInviteDetails     = "/users/self/invites/:organization"
	ResourceUserMembershipDetails = "/users/self/memberships/:organizationMemberId"
	ResourceUserSummaryData       = "/users/self/summary-data"

	ResourceInitiativeList           = "/initiatives"
	ResourceInitiativeDetails        = "/initiatives/:initiativeId"
	ResourceInitiativeRequestList    = "/initiatives/requests"
	ResourceInitiativeRequestDetails = "/initiatives/requests/:initiativeRequestId"
	ResourceInitiativeViews          = "/initiative-views"
	ResourceView                     = "/view/:initiativeId"

	ResourceIdentityVerifications        = "/identity-verifications"
	ResourceIdentityVerificationDetails  = "/identity-verifications/:identityVerificationId"
	ResourceVerificationEmail            = "/anonymous/verification-email"
	ResourceJumioCallback                = "/anonymous/jumio-callback/:transactionReference"
	ResourceAnonymousOrganizationProfile = "/anonymous/organizations/:organizationId"

	ResourceNotificationList    = "/notifications"
	ResourceNotificationDetails = "/notifications/:notificationId"

	ResourceConfig                     = "/config"
	ResourceConfigNotifyFooter         = "/config/notifications/footer"
	ResourceConfigReferralSettings     = "/config/referral-settings"
	ResourceConfigReengagementSettings = "/config/reengagement-settings"

	ResourceSystemMetrics           = "/system-metrics"
	ResourceSystemMetricsIdentities = "/system-metrics/identities"
	ResourceSystemMetricsReferrals  = "/system-metrics/referrals"
	ResourceSystemMetricsUsers      = "/system-metrics/users"

	ResourceOrganizationList          = "/organizations"
	ResourceOrganizationDetails       = "/organizations/:organizationId"
	ResourceOrganizationMembers       = "/organizations/members"
	ResourceOrganizationInvites       = "/organizations/invites"
	ResourceOrganizationMemberDetails = "/organizations/members/:organizationMemberId"
	ResourceOrganizationInviteDetails = "/organizations/invites/:organizationInviteId"

	ResourceReferrals       = "/referrals"
	ResourceReferralDetails = "/referrals/:referralId"
)

// builtinResources maps CLI-facing resource names to their paths.
func builtinResources() map[string]string {
	return map[string]string{
		"self":                         ResourceUserSelf,
		"user-invites":                 ResourceUserInvites,
		"user-invite":                  ResourceUserInviteDetails,
		"user-membership":              ResourceUserMembershipDetails,
		"user-summary":                 ResourceUserSummaryData,
		"initiatives":                  ResourceInitiativeList,
		"initiative":                   ResourceInitiativeDetails,
		"initiative-requests":          ResourceInitiativeRequestList,
		"initiative-request":           ResourceInitiativeRequestDetails,
		"initiative-views":             ResourceInitiativeViews,
		"view":                         ResourceView,
		"identity-verifications":       ResourceIdentityVerifications,
		"identity-verification":        ResourceIdentityVerificationDetails,
		"verification-email":           ResourceVerificationEmail,
		"jumio-callback":               ResourceJumioCallback,
		"organization-profile":         ResourceAnonymousOrganizationProfile,
		"notifications":                ResourceNotificationList,
		"notification":                 ResourceNotificationDetails,
		"config":                       ResourceConfig,
		"config-notify-footer":         ResourceConfigNotifyFooter,
		"config-referral-settings":     ResourceConfigReferralSettings,
		"config-reengagement-settings": ResourceConfigReengagementSettings,
		"system-metrics":               ResourceSystemMetrics,
		"system-metrics-identities":    ResourceSystemMetricsIdentities,
		"system-metrics-referrals":     ResourceSystemMetricsReferrals,
		"system-metrics-users":         ResourceSystemMetricsUsers,
		"organizations":                ResourceOrganizationList,
		"organization":                 ResourceOrganizationDetails,
		"organization-members":         ResourceOrganizationMembers,
		"organization-invites":         ResourceOrganizationInvites,
		"organization-member":          ResourceOrganizationMemberDetails,
		"organization-invite":          ResourceOrganizationInviteDetails,
		"referrals":                    ResourceReferrals,
		"referral":                     ResourceReferralDetails,
	}
}
