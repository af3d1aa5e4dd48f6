package survey

// Field names shared between the instrument schema and the analysis stages.
// The embedded instrument YAML must produce these names.
const (
	FieldRespondentID = "respondent_id"
	FieldCollectorID  = "collector_id"
	FieldStartDate    = "start_date"
	FieldEndDate      = "end_date"

	FieldCountryRaw = "country_raw"
	FieldCountry    = "country"
	FieldRegion     = "region"
	FieldCompletion = "completion_score"

	FieldFraudIncidents        = "fraud_incidents"
	FieldVerificationHours     = "credential_verification_hours"
	FieldCredentialChallenges  = "credential_challenges"
	FieldTempWorkforcePct      = "temp_workforce_percentage"
	FieldWorkforceChallenges   = "workforce_challenges"
	FieldTrainingFrequency     = "training_verification_frequency"
	FieldLostRecordHandling    = "lost_record_handling"
	FieldHoursResolving        = "hours_resolving_training"
	FieldTrainingConfidence    = "training_system_confidence"
	FieldDocumentationMethods  = "documentation_methods"
	FieldConflictingInfo       = "conflicting_info_frequency"
	FieldProvisionalBallots    = "provisional_ballot_tracking"
	FieldSyncTime              = "sync_time"
	FieldSyncConfidence        = "sync_system_confidence"
	FieldInfraLimitations      = "infrastructure_limitations"
	FieldWorkerReturnRate      = "worker_return_rate"
	FieldTechnologiesExplored  = "technologies_explored"
	FieldWorkerInterest        = "worker_interest_credentials"
	FieldExternalSupport       = "external_support_needed"
	FieldTempWorkersCount      = "temp_workers_count"
	FieldElectionsAnnually     = "elections_annually"
	FieldFollowupWilling       = "followup_willing"
	FieldTechRecruitment       = "tech_level_worker_recruitment"
	FieldTechTraining          = "tech_level_training_delivery"
	FieldTechPerformance       = "tech_level_performance_tracking"
	FieldTechCommunication     = "tech_level_communication_systems"
	FieldDocConfidencePrefix   = "doc_confidence_"
	FieldRetentionImpactPrefix = "retention_impact_"

	FieldInfrastructureScore = "infrastructure_score"
	FieldNeedScore           = "need_score"
	FieldCapabilityScore     = "capability_score"
	FieldWillingnessScore    = "willingness_score"
	FieldCompositeScore      = "composite_score"
	FieldSuitability         = "suitability"
)

// TechLevelFields are the four technology-level matrix items
var TechLevelFields = []string{
	FieldTechRecruitment,
	FieldTechTraining,
	FieldTechPerformance,
	FieldTechCommunication,
}

// PriorityFields are the open top-3 priorities
var PriorityFields = []string{"priority_1", "priority_2", "priority_3"}
